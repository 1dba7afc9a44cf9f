package ringrun

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_changeState(t *testing.T) {
	app := NewApp()
	app.stateful = true
	app.initialState, app.state, app.finalState = 1, 1, 2

	app.changeState(2)
	assert.Equal(t, State(2), app.nextState)
	assert.True(t, app.stateTransitioning)

	app.executeChangeState(2)
	assert.Equal(t, State(2), app.state)
}

func TestApp_addResources(t *testing.T) {
	app := NewApp()

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	assert.Panics(t, func() { app.addResources(MockResource2{}) }, "resources must be pointers")

	got, ok := Resource[MockResource2](app)
	require.True(t, ok)
	assert.Same(t, resource2, got)
}

func TestApp_SystemDependencyInjection(t *testing.T) {
	app := NewApp()
	res := NewMockResource1("injected")
	app.addResources(res)

	var seen string
	var cmdSeen bool
	app.UseSystem(System(func(r *MockResource1, cmd *Commands) {
		seen = r.name
		cmdSeen = cmd != nil
	}))
	app.Start()
	app.Step()

	assert.Equal(t, "injected", seen)
	assert.True(t, cmdSeen)
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(System(func(*MockResource2) {}))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.Contains(t, r, "unable to resolve system dependency")
		assert.Contains(t, r, "MockResource2")
	}()
	app.Step()
}

func TestApp_StagesRunInOrder(t *testing.T) {
	app := NewApp()
	var order []string
	for _, stage := range []Stage{Finale, Render, Prelude, Update} {
		app.UseSystem(System(func() { order = append(order, stage.Name) }).InStage(stage))
	}
	custom := Stage{Name: "Physics"}
	app.UseStage(custom, AfterStage(Update))
	app.UseSystem(System(func() { order = append(order, custom.Name) }).InStage(custom))

	app.Step()
	assert.Equal(t, []string{"Prelude", "Update", "Physics", "Render", "Finale"}, order)

	assert.Panics(t, func() { app.UseSystem(System(func() {}).InStage(Stage{Name: "Nope"})) })
	assert.Panics(t, func() { app.UseStage(Stage{Name: "X"}, BeforeStage(Stage{Name: "Nope"})) })
}

func TestApp_StatefulLifecycle(t *testing.T) {
	const (
		menu State = iota
		play
		quit
	)
	var log []string
	record := func(s string) func() { return func() { log = append(log, s) } }

	app := NewAppBuilder().UseStates(menu, quit).Build()
	app.UseSystem(System(record("menu enter")).InState(OnEnter(menu)))
	app.UseSystem(System(func(cmd *Commands) {
		log = append(log, "menu execute")
		cmd.ChangeState(play)
	}).InState(OnExecute(menu)))
	app.UseSystem(System(record("menu exit")).InState(OnExit(menu)))
	app.UseSystem(System(record("play enter")).InState(OnEnter(play)))
	app.UseSystem(System(func(cmd *Commands) {
		log = append(log, "play execute")
		cmd.ChangeState(quit)
	}).InState(OnExecute(play)))
	app.UseSystem(System(record("quit exit")).InState(OnExit(quit)))
	app.UseSystem(System(record("always")).InStage(PreUpdate).RunAlways())

	app.Start()
	assert.Equal(t, menu, app.State())
	assert.True(t, app.Step())
	assert.Equal(t, play, app.State())
	assert.False(t, app.Step(), "reaching the final state stops the app")
	assert.False(t, app.Step())

	assert.Equal(t, []string{
		"menu enter",
		"always", "menu execute", "menu exit", "play enter",
		"always", "play execute", "quit exit",
	}, log)

	assert.Panics(t, func() { app.UseSystem(System(func() {}).InState(OnEnter(quit + 1))) })
}

func TestApp_StatefulSystemInStatelessAppPanics(t *testing.T) {
	app := NewApp()
	assert.PanicsWithValue(t, "trying to use a stateful system in a stateless app", func() {
		app.UseSystem(System(func() {}).InState(OnExecute(1)))
	})
}

func TestApp_CommandsFlushAfterEachStage(t *testing.T) {
	type Marker struct{ n int }

	app := NewApp()
	var seenInUpdate int
	app.UseSystem(System(func(cmd *Commands) {
		cmd.AddEntity(Marker{n: 1})
		assert.Zero(t, MakeQuery1[Marker](cmd).Count(), "additions are buffered")
	}).InStage(PreUpdate))
	app.UseSystem(System(func(cmd *Commands) {
		seenInUpdate = MakeQuery1[Marker](cmd).Count()
	}).InStage(Update))

	app.Step()
	assert.Equal(t, 1, seenInUpdate)
}

func TestApp_FlushOrder(t *testing.T) {
	type A struct{ v int }
	type B struct{ v int }

	app := NewApp()
	cmd := app.Commands()
	eid := cmd.AddEntity(A{v: 1})
	cmd.AddComponents(eid, B{v: 2})
	app.FlushCommands()
	assert.Equal(t, []any{A{v: 1}, B{v: 2}}, cmd.GetAllComponents(eid), "changes to a reserved id apply after its addition")

	cmd.RemoveComponents(eid, A{})
	cmd.AddComponents(eid, A{v: 3})
	app.FlushCommands()
	assert.Equal(t, []any{A{v: 3}, B{v: 2}}, cmd.GetAllComponents(eid), "component changes apply in issue order")

	cmd.RemoveEntity(eid)
	cmd.AddComponents(eid, A{v: 4})
	app.FlushCommands()
	assert.Nil(t, cmd.GetAllComponents(eid))
}

func TestApp_ResourcesFromModules(t *testing.T) {
	app := NewAppBuilder().UseModule(LoggingModule{Prefix: "test"}).Build()
	_, ok := app.Logger().(*DefaultLogger)
	assert.True(t, ok)
	assert.NotNil(t, app.SlogLogger())

	assert.IsType(t, NewNopLogger(), NewApp().Logger())
}
