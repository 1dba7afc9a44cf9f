package ringrun

import (
	"reflect"
)

// Queries visit every entity that has all of the query's component types.
// Types listed in optionals may be missing; the callback then receives nil
// for them. Returning false from the callback stops the iteration.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	idA := idOf[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	q.ecs.eachArchetype(func(arch *archetype) bool {
		colA, ok := column[A](arch, idA, opt)
		if !ok {
			return true
		}
		return arch.eachRow(func(eid EntityId, r row) bool {
			return m(eid, colA.at(r))
		})
	})
}

// Get returns the entity's component, or false if it has none.
func (q Query1[A]) Get(eid EntityId) (*A, bool) {
	archId, ok := q.ecs.entityIndex[eid]
	if !ok {
		return nil, false
	}
	arch := q.ecs.archetypes[archId]
	data, ok := arch.componentData[idOf[A](q.ecs)]
	if !ok {
		return nil, false
	}
	return &data.([]A)[arch.entities[eid]], true
}

// Count returns the number of matching entities.
func (q Query1[A]) Count() int {
	n := 0
	q.Map(func(EntityId, *A) bool {
		n++
		return true
	})
	return n
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	idA, idB := idOf[A](q.ecs), idOf[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	q.ecs.eachArchetype(func(arch *archetype) bool {
		colA, okA := column[A](arch, idA, opt)
		colB, okB := column[B](arch, idB, opt)
		if !okA || !okB {
			return true
		}
		return arch.eachRow(func(eid EntityId, r row) bool {
			return m(eid, colA.at(r), colB.at(r))
		})
	})
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	idA, idB, idC := idOf[A](q.ecs), idOf[B](q.ecs), idOf[C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	q.ecs.eachArchetype(func(arch *archetype) bool {
		colA, okA := column[A](arch, idA, opt)
		colB, okB := column[B](arch, idB, opt)
		colC, okC := column[C](arch, idC, opt)
		if !okA || !okB || !okC {
			return true
		}
		return arch.eachRow(func(eid EntityId, r row) bool {
			return m(eid, colA.at(r), colB.at(r), colC.at(r))
		})
	})
}

// col is a typed view of one component slice; nil data means the component
// is an absent optional.
type col[T any] struct{ data []T }

func (c col[T]) at(r row) *T {
	if c.data == nil {
		return nil
	}
	return &c.data[r]
}

func column[T any](arch *archetype, cid componentId, optionals set[componentId]) (col[T], bool) {
	if data, ok := arch.componentData[cid]; ok {
		return col[T]{data: data.([]T)}, true
	}
	if _, ok := optionals[cid]; ok {
		return col[T]{}, true
	}
	return col[T]{}, false
}

func (ecs *Ecs) eachArchetype(fn func(*archetype) bool) {
	for _, id := range ecs.archetypeOrder {
		if !fn(ecs.archetypes[id]) {
			return
		}
	}
}

// eachRow returns false if fn stopped the iteration.
func (arch *archetype) eachRow(fn func(EntityId, row) bool) bool {
	for i, eid := range arch.owners {
		if !arch.live[i] {
			continue
		}
		if !fn(eid, row(i)) {
			return false
		}
	}
	return true
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId], len(components))
	for _, c := range components {
		res[ecs.getComponentId(componentType(c))] = struct{}{}
	}
	return res
}

func idOf[T any](ecs *Ecs) componentId {
	return ecs.getComponentId(reflect.TypeOf((*T)(nil)).Elem())
}
