package game

// arena stores entities by stable ID with an insertion-ordered id list.
//
// Removal deletes from the map only; the order list is compacted after the
// resolution pass. Iteration skips removed ids and never visits entities
// added during the iteration, so multi-pass collision checks can remove by
// identity without invalidating anyone's position.
type arena[T any] struct {
	byID  map[EntityID]*T
	order []EntityID
}

func newArena[T any](capacity int) arena[T] {
	return arena[T]{
		byID:  make(map[EntityID]*T, capacity),
		order: make([]EntityID, 0, capacity),
	}
}

func (a *arena[T]) add(id EntityID, v *T) {
	a.byID[id] = v
	a.order = append(a.order, id)
}

func (a *arena[T]) get(id EntityID) (*T, bool) {
	v, ok := a.byID[id]
	return v, ok
}

func (a *arena[T]) remove(id EntityID) bool {
	if _, ok := a.byID[id]; !ok {
		return false
	}
	delete(a.byID, id)
	return true
}

// each visits live entities in insertion order. Return false to stop.
func (a *arena[T]) each(fn func(id EntityID, v *T) bool) {
	n := len(a.order)
	for i := 0; i < n; i++ {
		id := a.order[i]
		v, ok := a.byID[id]
		if !ok {
			continue
		}
		if !fn(id, v) {
			return
		}
	}
}

// compact drops removed ids from the order list in place.
func (a *arena[T]) compact() {
	n := 0
	for _, id := range a.order {
		if _, ok := a.byID[id]; ok {
			a.order[n] = id
			n++
		}
	}
	clear(a.order[n:])
	a.order = a.order[:n]
}

func (a *arena[T]) len() int {
	return len(a.byID)
}

func (a *arena[T]) reset() {
	clear(a.byID)
	a.order = a.order[:0]
}

// values returns live entities in order.
func (a *arena[T]) values() []*T {
	out := make([]*T, 0, len(a.byID))
	a.each(func(_ EntityID, v *T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Registry owns every entity of a run.
type Registry struct {
	nextID EntityID

	buildings    []*Building // Fixed for the run, never removed
	enemies      arena[Enemy]
	interceptors arena[Interceptor]
	projectiles  arena[TurretProjectile]
	explosions   arena[Explosion]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		enemies:      newArena[Enemy](64),
		interceptors: newArena[Interceptor](MaxInterceptors),
		projectiles:  newArena[TurretProjectile](16),
		explosions:   newArena[Explosion](64),
	}
}

func (r *Registry) allocID() EntityID {
	r.nextID++
	return r.nextID
}

// NextID returns the last allocated id.
func (r *Registry) NextID() EntityID { return r.nextID }

// SetBuildings replaces the building layout and assigns IDs.
func (r *Registry) SetBuildings(bs []*Building) {
	for _, b := range bs {
		b.ID = r.allocID()
	}
	r.buildings = bs
}

// Buildings returns all buildings, destroyed included.
func (r *Registry) Buildings() []*Building { return r.buildings }

// AliveBuildings returns the surviving buildings in layout order.
func (r *Registry) AliveBuildings() []*Building {
	out := make([]*Building, 0, len(r.buildings))
	for _, b := range r.buildings {
		if !b.Destroyed {
			out = append(out, b)
		}
	}
	return out
}

// AddEnemy assigns an ID and registers e.
func (r *Registry) AddEnemy(e *Enemy) EntityID {
	e.ID = r.allocID()
	r.enemies.add(e.ID, e)
	return e.ID
}

// AddInterceptor assigns an ID and registers in.
func (r *Registry) AddInterceptor(in *Interceptor) EntityID {
	in.ID = r.allocID()
	r.interceptors.add(in.ID, in)
	return in.ID
}

// AddProjectile assigns an ID and registers p.
func (r *Registry) AddProjectile(p *TurretProjectile) EntityID {
	p.ID = r.allocID()
	r.projectiles.add(p.ID, p)
	return p.ID
}

// AddExplosion assigns an ID and registers x.
func (r *Registry) AddExplosion(x *Explosion) EntityID {
	x.ID = r.allocID()
	r.explosions.add(x.ID, x)
	return x.ID
}

func (r *Registry) Enemy(id EntityID) (*Enemy, bool) { return r.enemies.get(id) }

func (r *Registry) RemoveEnemy(id EntityID) bool { return r.enemies.remove(id) }
func (r *Registry) RemoveInterceptor(id EntityID) bool { return r.interceptors.remove(id) }
func (r *Registry) RemoveProjectile(id EntityID) bool { return r.projectiles.remove(id) }
func (r *Registry) RemoveExplosion(id EntityID) bool { return r.explosions.remove(id) }

func (r *Registry) EachEnemy(fn func(*Enemy) bool) {
	r.enemies.each(func(_ EntityID, e *Enemy) bool { return fn(e) })
}

func (r *Registry) EachInterceptor(fn func(*Interceptor) bool) {
	r.interceptors.each(func(_ EntityID, in *Interceptor) bool { return fn(in) })
}

func (r *Registry) EachProjectile(fn func(*TurretProjectile) bool) {
	r.projectiles.each(func(_ EntityID, p *TurretProjectile) bool { return fn(p) })
}

func (r *Registry) EachExplosion(fn func(*Explosion) bool) {
	r.explosions.each(func(_ EntityID, x *Explosion) bool { return fn(x) })
}

func (r *Registry) Enemies() []*Enemy { return r.enemies.values() }
func (r *Registry) Interceptors() []*Interceptor { return r.interceptors.values() }
func (r *Registry) Projectiles() []*TurretProjectile { return r.projectiles.values() }
func (r *Registry) Explosions() []*Explosion { return r.explosions.values() }
func (r *Registry) EnemyCount() int { return r.enemies.len() }
func (r *Registry) InterceptorCount() int { return r.interceptors.len() }
func (r *Registry) ExplosionCount() int { return r.explosions.len() }

// Compact drops removed ids from every ordered list.
func (r *Registry) Compact() {
	r.enemies.compact()
	r.interceptors.compact()
	r.projectiles.compact()
	r.explosions.compact()
}

// ClearTransient removes everything except buildings.
func (r *Registry) ClearTransient() {
	r.enemies.reset()
	r.interceptors.reset()
	r.projectiles.reset()
	r.explosions.reset()
}

// Reset empties the registry for a new run.
func (r *Registry) Reset() {
	r.ClearTransient()
	r.buildings = nil
	r.nextID = 0
}

// restore rebuilds a registry from saved entities, keeping their IDs.
func (r *Registry) restore(st registryState) {
	r.Reset()
	r.nextID = st.NextID
	r.buildings = st.Buildings
	for _, e := range st.Enemies {
		r.enemies.add(e.ID, e)
	}
	for _, in := range st.Interceptors {
		r.interceptors.add(in.ID, in)
	}
	for _, p := range st.Projectiles {
		r.projectiles.add(p.ID, p)
	}
	for _, x := range st.Explosions {
		r.explosions.add(x.ID, x)
	}
}

func (r *Registry) state() registryState {
	return registryState{
		NextID:       r.nextID,
		Buildings:    r.buildings,
		Enemies:      r.Enemies(),
		Interceptors: r.Interceptors(),
		Projectiles:  r.Projectiles(),
		Explosions:   r.Explosions(),
	}
}

type registryState struct {
	NextID       EntityID            `msgpack:"next_id"`
	Buildings    []*Building         `msgpack:"buildings"`
	Enemies      []*Enemy            `msgpack:"enemies"`
	Interceptors []*Interceptor      `msgpack:"interceptors"`
	Projectiles  []*TurretProjectile `msgpack:"projectiles"`
	Explosions   []*Explosion        `msgpack:"explosions"`
}
