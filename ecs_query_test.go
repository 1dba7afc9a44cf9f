package ringrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Comp1 struct{ a int }
type Comp2 struct{ b float32 }
type Comp3 struct{}

func queryFixture() (*Commands, []EntityId) {
	app := NewApp()
	ecs := app.ecs
	ids := []EntityId{
		ecs.addEntity(Comp1{a: 1}),                          // comp1 only
		ecs.addEntity(Comp1{a: 2}, Comp2{b: 1.37}),          // comp1 & comp2
		ecs.addEntity(Comp1{a: 3}, Comp2{b: 4.20}, Comp3{}), // comp1 & comp2 + something extra
		ecs.addEntity(Comp1{a: 4}, Comp3{}),                 // comp1 + something extra
		ecs.addEntity(Comp2{b: 3.14}),                       // comp2 only
	}
	return app.Commands(), ids
}

func TestQuery2_Map(t *testing.T) {
	cmd, ids := queryFixture()

	var gotIds []EntityId
	var gotA []Comp1
	var gotB []Comp2
	MakeQuery2[Comp1, Comp2](cmd).Map(func(eid EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		gotIds = append(gotIds, eid)
		gotA = append(gotA, *comp1)
		gotB = append(gotB, *comp2)
		return true
	})

	assert.Equal(t, []EntityId{ids[1], ids[2]}, gotIds)
	assert.Equal(t, []Comp1{{a: 2}, {a: 3}}, gotA)
	assert.Equal(t, []Comp2{{b: 1.37}, {b: 4.20}}, gotB)
}

func TestQuery2_Optional(t *testing.T) {
	cmd, ids := queryFixture()

	var gotIds []EntityId
	withB := 0
	MakeQuery2[Comp1, Comp2](cmd).Map(func(eid EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		require.NotNil(t, comp1)
		gotIds = append(gotIds, eid)
		if comp2 != nil {
			withB++
		}
		return true
	}, Comp2{})

	assert.Equal(t, []EntityId{ids[0], ids[1], ids[2], ids[3]}, gotIds)
	assert.Equal(t, 2, withB)
}

func TestQuery_MutationsStick(t *testing.T) {
	cmd, ids := queryFixture()

	MakeQuery1[Comp1](cmd).Map(func(eid EntityId, c *Comp1) bool {
		c.a *= 10
		return true
	})
	got, ok := MakeQuery1[Comp1](cmd).Get(ids[3])
	require.True(t, ok)
	assert.Equal(t, 40, got.a)

	_, ok = MakeQuery1[Comp1](cmd).Get(ids[4])
	assert.False(t, ok)
	_, ok = MakeQuery1[Comp1](cmd).Get(999)
	assert.False(t, ok)
}

func TestQuery_StopsEarly(t *testing.T) {
	cmd, _ := queryFixture()

	visited := 0
	MakeQuery1[Comp1](cmd).Map(func(EntityId, *Comp1) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
	assert.Equal(t, 4, MakeQuery1[Comp1](cmd).Count())
}

func TestQuery3_Map(t *testing.T) {
	cmd, ids := queryFixture()

	var gotIds []EntityId
	MakeQuery3[Comp1, Comp2, Comp3](cmd).Map(func(eid EntityId, _ *Comp1, _ *Comp2, _ *Comp3) bool {
		gotIds = append(gotIds, eid)
		return true
	})
	assert.Equal(t, []EntityId{ids[2]}, gotIds)
}

func TestQuery_SkipsRemovedRows(t *testing.T) {
	cmd, ids := queryFixture()
	cmd.RemoveEntity(ids[1])
	cmd.app.FlushCommands()

	var gotIds []EntityId
	MakeQuery2[Comp1, Comp2](cmd).Map(func(eid EntityId, _ *Comp1, _ *Comp2) bool {
		gotIds = append(gotIds, eid)
		return true
	})
	assert.Equal(t, []EntityId{ids[2]}, gotIds)
}
