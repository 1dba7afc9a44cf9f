package ringrun

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64
type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

// Ecs stores components in archetypes: one typed slice per component type,
// one row per entity. Archetypes and rows are visited in insertion order so
// queries are deterministic.
type Ecs struct {
	archetypes     map[archetypeId]*archetype
	archetypeOrder []archetypeId
	entityIndex    map[EntityId]archetypeId

	idLock       sync.Mutex
	nextEntity   EntityId
	componentIds map[reflect.Type]componentId
	componentTys map[componentId]reflect.Type
}

type archetype struct {
	id            archetypeId
	key           archetypeKey
	entities      map[EntityId]row
	owners        []EntityId
	live          []bool
	componentData map[componentId]any
	recycled      []row
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:   make(map[archetypeId]*archetype),
		entityIndex:  make(map[EntityId]archetypeId),
		componentIds: make(map[reflect.Type]componentId),
		componentTys: make(map[componentId]reflect.Type),
	}
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(eid EntityId, components ...any) EntityId {
	archId, arch := ecs.getOrMakeArchetype(ecs.keyOf(components...))

	r := ecs.reserveRow(arch, eid)
	for _, c := range components {
		ecs.writeComponent(arch, r, c)
	}
	ecs.entityIndex[eid] = archId
	return eid
}

func (ecs *Ecs) hasEntity(eid EntityId) bool {
	_, ok := ecs.entityIndex[eid]
	return ok
}

func (ecs *Ecs) removeEntity(eid EntityId) {
	if !ecs.hasEntity(eid) {
		return
	}
	ecs.releaseRow(eid)
	delete(ecs.entityIndex, eid)
}

func (ecs *Ecs) addComponents(eid EntityId, components ...any) {
	if !ecs.hasEntity(eid) {
		return
	}
	src := ecs.archetypes[ecs.entityIndex[eid]]
	srcRow := src.entities[eid]

	dstId, dst := ecs.getOrMakeArchetype(combineArchetypeKeys(src.key, ecs.keyOf(components...)))
	if dst == src {
		for _, c := range components {
			ecs.writeComponent(dst, srcRow, c)
		}
		return
	}

	dstRow := ecs.reserveRow(dst, eid)
	ecs.copyShared(src, srcRow, dst, dstRow)
	for _, c := range components {
		ecs.writeComponent(dst, dstRow, c)
	}
	ecs.releaseRow(eid)
	ecs.entityIndex[eid] = dstId
}

func (ecs *Ecs) removeComponents(eid EntityId, components ...any) {
	if !ecs.hasEntity(eid) {
		return
	}
	src := ecs.archetypes[ecs.entityIndex[eid]]
	srcRow := src.entities[eid]

	drop := make(set[componentId])
	for _, c := range components {
		drop[ecs.getComponentId(componentType(c))] = struct{}{}
	}
	var key archetypeKey
	for _, cid := range src.key {
		if _, ok := drop[cid]; !ok {
			key = append(key, cid)
		}
	}

	dstId, dst := ecs.getOrMakeArchetype(key)
	if dst == src {
		return
	}
	dstRow := ecs.reserveRow(dst, eid)
	ecs.copyShared(src, srcRow, dst, dstRow)
	ecs.releaseRow(eid)
	ecs.entityIndex[eid] = dstId
}

// copyShared copies every component present in both archetypes.
func (ecs *Ecs) copyShared(src *archetype, srcRow row, dst *archetype, dstRow row) {
	for _, cid := range src.key {
		dstData, ok := dst.componentData[cid]
		if !ok {
			continue
		}
		reflectSliceSet(dstData, int(dstRow), reflectSliceGet(src.componentData[cid], int(srcRow)))
	}
}

func (ecs *Ecs) writeComponent(arch *archetype, r row, component any) {
	value := reflect.ValueOf(component)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	cid := ecs.getComponentId(value.Type())
	reflectSliceSet(arch.componentData[cid], int(r), value)
}

func (ecs *Ecs) reserveRow(arch *archetype, eid EntityId) row {
	var r row
	if n := len(arch.recycled); n > 0 {
		r = arch.recycled[n-1]
		arch.recycled = arch.recycled[:n-1]
		arch.owners[r] = eid
		arch.live[r] = true
	} else {
		r = row(len(arch.owners))
		arch.owners = append(arch.owners, eid)
		arch.live = append(arch.live, true)
		for _, cid := range arch.key {
			arch.componentData[cid] = reflectSliceAppend(arch.componentData[cid], reflect.Zero(ecs.componentTys[cid]))
		}
	}
	arch.entities[eid] = r
	return r
}

// releaseRow frees the entity's row in the archetype entityIndex points at.
// The row is zeroed so stale component data does not leak into the next owner.
func (ecs *Ecs) releaseRow(eid EntityId) {
	arch := ecs.archetypes[ecs.entityIndex[eid]]
	r := arch.entities[eid]
	for _, cid := range arch.key {
		reflectSliceSet(arch.componentData[cid], int(r), reflect.Zero(ecs.componentTys[cid]))
	}
	arch.live[r] = false
	arch.recycled = append(arch.recycled, r)
	delete(arch.entities, eid)
}

func (ecs *Ecs) getOrMakeArchetype(key archetypeKey) (archetypeId, *archetype) {
	id := getArchetypeId(key)
	if arch, ok := ecs.archetypes[id]; ok {
		return id, arch
	}

	arch := &archetype{
		id:            id,
		key:           key,
		entities:      make(map[EntityId]row),
		componentData: make(map[componentId]any, len(key)),
	}
	for _, cid := range key {
		arch.componentData[cid] = reflectSliceMake(ecs.componentTys[cid])
	}
	ecs.archetypes[id] = arch
	ecs.archetypeOrder = append(ecs.archetypeOrder, id)
	return id, arch
}

// keyOf returns the canonical archetype key (sorted, unique component ids).
func (ecs *Ecs) keyOf(components ...any) archetypeKey {
	key := make(archetypeKey, 0, len(components))
	for _, c := range components {
		key = append(key, ecs.getComponentId(componentType(c)))
	}
	return dedupAndSortArchetypeKey(key)
}

func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Errorf("component must be a struct or a pointer to a struct, got %v", t))
	}
	return t
}

func combineArchetypeKeys(a, b archetypeKey) archetypeKey {
	merged := make(archetypeKey, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return dedupAndSortArchetypeKey(merged)
}

func dedupAndSortArchetypeKey(key archetypeKey) archetypeKey {
	res := slices.Clone(key)
	slices.Sort(res)
	return slices.Compact(res)
}

func getArchetypeId(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	var b [4]byte
	for _, cid := range key {
		binary.LittleEndian.PutUint32(b[:], uint32(cid))
		hash.Write(b[:])
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idLock.Lock()
	defer ecs.idLock.Unlock()

	ecs.nextEntity++
	return ecs.nextEntity
}

func (ecs *Ecs) getComponentId(t reflect.Type) componentId {
	ecs.idLock.Lock()
	defer ecs.idLock.Unlock()

	if id, ok := ecs.componentIds[t]; ok {
		return id
	}
	id := componentId(len(ecs.componentIds))
	ecs.componentIds[t] = id
	ecs.componentTys[id] = t
	return id
}

func (ecs *Ecs) getComponentType(cid componentId) reflect.Type {
	if t, ok := ecs.componentTys[cid]; ok {
		return t
	}
	panic(fmt.Sprintf("component id %d not registered", cid))
}

// componentsOf returns copies of every component on the entity.
func (ecs *Ecs) componentsOf(eid EntityId) []any {
	archId, ok := ecs.entityIndex[eid]
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]
	r := arch.entities[eid]

	res := make([]any, 0, len(arch.key))
	for _, cid := range arch.key {
		res = append(res, reflectSliceGet(arch.componentData[cid], int(r)).Interface())
	}
	return res
}

// Component storage is a []T held as any; these helpers hide the reflection.

func reflectSliceMake(elem reflect.Type) any {
	return reflect.MakeSlice(reflect.SliceOf(elem), 0, 4).Interface()
}

func reflectSliceGet(slice any, idx int) reflect.Value {
	return reflect.ValueOf(slice).Index(idx)
}

func reflectSliceSet(slice any, idx int, val reflect.Value) {
	reflect.ValueOf(slice).Index(idx).Set(val)
}

func reflectSliceAppend(slice any, val reflect.Value) any {
	return reflect.Append(reflect.ValueOf(slice), val).Interface()
}
