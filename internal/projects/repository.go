// Package projects implements the project collection on top of the local
// store. Every mutation is a read-modify-write of the whole collection.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fotoforge/internal/store"
	"fotoforge/pkg/logger"
)

var ErrNotFound = errors.New("project not found")

// Repository is owner-scoped CRUD over the stored project collection.
type Repository struct {
	store store.Store
	now   func() time.Time

	// mu serialises read-modify-write cycles within this process and guards lastID.
	// Other processes writing the same store are not coordinated with.
	mu     sync.Mutex
	lastID int64
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s, now: time.Now}
}

// load returns the whole collection; a missing or corrupt document is empty.
func (r *Repository) load(ctx context.Context) []Project {
	var all []Project
	if !store.GetInto(ctx, r.store, store.KeyProjects, &all) {
		return []Project{}
	}
	return all
}

func (r *Repository) write(ctx context.Context, all []Project) error {
	if err := r.store.Set(ctx, store.KeyProjects, all); err != nil {
		return fmt.Errorf("failed to persist projects: %w", err)
	}
	return nil
}

// ListForOwner returns the owner's projects in stored order, newest first.
func (r *Repository) ListForOwner(ctx context.Context, owner *string) []Project {
	all := r.load(ctx)

	out := make([]Project, 0, len(all))
	for _, p := range all {
		if p.OwnedBy(owner) {
			out = append(out, p)
		}
	}
	return out
}

// Get returns one of the owner's projects.
func (r *Repository) Get(ctx context.Context, owner *string, id ID) (Project, error) {
	for _, p := range r.ListForOwner(ctx, owner) {
		if p.ID == id {
			return p, nil
		}
	}
	return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// UpsertAll replaces every project of owner with projects, leaving all other
// owners untouched. The given set is placed ahead of the remaining records.
func (r *Repository) UpsertAll(ctx context.Context, owner *string, projects []Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertAll(ctx, owner, projects)
}

func (r *Repository) upsertAll(ctx context.Context, owner *string, projects []Project) error {
	all := r.load(ctx)

	merged := make([]Project, 0, len(all)+len(projects))
	for _, p := range projects {
		p.Owner = cloneOwner(owner)
		merged = append(merged, p)
	}
	for _, p := range all {
		if !p.OwnedBy(owner) {
			merged = append(merged, p)
		}
	}

	return r.write(ctx, merged)
}

// DeleteOne removes the record matching both id and owner. Records with the
// same id under another owner are never touched. Deleting a missing id is a no-op.
func (r *Repository) DeleteOne(ctx context.Context, owner *string, id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.load(ctx)
	kept := make([]Project, 0, len(all))
	for _, p := range all {
		if p.ID == id && p.OwnedBy(owner) {
			continue
		}
		kept = append(kept, p)
	}

	if len(kept) == len(all) {
		return nil
	}

	logger.LogInfo("Deleted project %s of %s", id, OwnerLabel(owner))
	return r.write(ctx, kept)
}

// Create allocates a time-derived id and prepends a new project to the owner's list.
func (r *Repository) Create(ctx context.Context, owner *string, name, imageData string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID()
	if name == "" {
		name = "Projeto " + string(id)
	}

	p := Project{
		ID:         id,
		Name:       name,
		ImageData:  imageData,
		LastEdited: LabelNow,
		Owner:      cloneOwner(owner),
	}

	existing := r.ListForOwner(ctx, owner)
	next := append([]Project{p}, existing...)
	if err := r.upsertAll(ctx, owner, next); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Import adds projects to the end of the owner's list, keeping their order,
// names, images and labels. Incoming ids are discarded: each project gets a
// freshly allocated id that no record of any owner uses yet.
func (r *Repository) Import(ctx context.Context, owner *string, items []Project) ([]Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken := make(map[ID]bool)
	for _, p := range r.load(ctx) {
		taken[p.ID] = true
	}

	imported := make([]Project, 0, len(items))
	for _, p := range items {
		id := r.nextID()
		for taken[id] {
			id = r.nextID()
		}
		taken[id] = true

		p.ID = id
		p.Owner = cloneOwner(owner)
		imported = append(imported, p)
	}

	existing := r.ListForOwner(ctx, owner)
	if err := r.upsertAll(ctx, owner, append(existing, imported...)); err != nil {
		return nil, err
	}
	logger.LogInfo("Imported %d projects for %s", len(imported), OwnerLabel(owner))
	return imported, nil
}

// SaveImage overwrites the image of an existing project. When the id is not
// among the owner's projects it returns ErrNotFound and writes nothing.
func (r *Repository) SaveImage(ctx context.Context, owner *string, id ID, imageData string) (Project, error) {
	return r.update(ctx, owner, id, func(p *Project) {
		p.ImageData = imageData
		p.LastEdited = LabelNow
	})
}

// Rename changes the display name of a project.
func (r *Repository) Rename(ctx context.Context, owner *string, id ID, name string) (Project, error) {
	return r.update(ctx, owner, id, func(p *Project) {
		p.Name = name
	})
}

func (r *Repository) update(ctx context.Context, owner *string, id ID, mutate func(*Project)) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.load(ctx)
	for i := range all {
		if all[i].ID == id && all[i].OwnedBy(owner) {
			mutate(&all[i])
			if err := r.write(ctx, all); err != nil {
				return Project{}, err
			}
			return all[i], nil
		}
	}
	return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Count returns the size of the whole collection across owners.
func (r *Repository) Count(ctx context.Context) int {
	return len(r.load(ctx))
}

// nextID returns the current time in milliseconds, bumped past the last
// issued id so that two creations in the same millisecond stay distinct.
func (r *Repository) nextID() ID {
	ms := r.now().UnixMilli()
	if ms <= r.lastID {
		ms = r.lastID + 1
	}
	r.lastID = ms
	return ID(strconv.FormatInt(ms, 10))
}

func cloneOwner(owner *string) *string {
	if owner == nil {
		return nil
	}
	v := *owner
	return &v
}
