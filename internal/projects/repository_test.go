package projects

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotoforge/internal/store"
	"fotoforge/pkg/logger"
)

func newRepo(t *testing.T) (*Repository, *store.MemoryStore) {
	t.Helper()
	logger.SetOutput(&strings.Builder{})
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	s := store.NewMemoryStore()
	r := NewRepository(s)
	r.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return r, s
}

func seed(t *testing.T, s *store.MemoryStore, raw string) {
	t.Helper()
	s.PutRaw(store.KeyProjects, []byte(raw))
}

func stored(t *testing.T, s *store.MemoryStore) string {
	t.Helper()
	return string(s.Get(context.Background(), store.KeyProjects))
}

func TestCreate_PrependsAndAllocatesUniqueIDs(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	ana := Owner("ana@example.com")

	p1, err := r.Create(ctx, ana, "", "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	p2, err := r.Create(ctx, ana, "Second", "data:image/jpeg;base64,BBBB")
	require.NoError(t, err)

	assert.Equal(t, ID("1700000000000"), p1.ID)
	assert.Equal(t, ID("1700000000001"), p2.ID, "same millisecond must not collide")
	assert.Equal(t, "Projeto 1700000000000", p1.Name)
	assert.Equal(t, LabelNow, p1.LastEdited)
	require.NotNil(t, p1.Owner)
	assert.Equal(t, "ana@example.com", *p1.Owner)

	list := r.ListForOwner(ctx, ana)
	require.Len(t, list, 2)
	assert.Equal(t, p2.ID, list[0].ID, "newest first")
	assert.Equal(t, p1.ID, list[1].ID)
}

func TestListForOwner_FiltersByExactOwner(t *testing.T) {
	r, s := newRepo(t)
	seed(t, s, `[
		{"id": 3, "name": "c", "imageUrl": "/randomImages/03.jpg", "lastEdited": "1 semana atrás", "owner": "ana@example.com"},
		{"id": "2", "name": "b", "lastEdited": "x", "owner": "bia@example.com"},
		{"id": "1", "name": "a", "lastEdited": "x", "owner": null},
		{"id": "0", "name": "z", "lastEdited": "x", "owner": "guest"}
	]`)
	ctx := context.Background()

	ana := r.ListForOwner(ctx, Owner("ana@example.com"))
	require.Len(t, ana, 1)
	assert.Equal(t, ID("3"), ana[0].ID, "numeric ids decode as strings")

	guests := r.ListForOwner(ctx, nil)
	require.Len(t, guests, 1)
	assert.Equal(t, ID("1"), guests[0].ID)

	literal := r.ListForOwner(ctx, Owner("guest"))
	require.Len(t, literal, 1)
	assert.Equal(t, ID("0"), literal[0].ID)
}

func TestUpsertAll_IsIdempotentAndLeavesOthers(t *testing.T) {
	r, s := newRepo(t)
	seed(t, s, `[
		{"id": "1", "name": "a", "lastEdited": "x", "owner": "ana@example.com"},
		{"id": "2", "name": "b", "lastEdited": "x", "owner": "bia@example.com"},
		{"id": "3", "name": "g", "lastEdited": "x", "owner": null}
	]`)
	ctx := context.Background()
	ana := Owner("ana@example.com")

	set := []Project{
		{ID: "10", Name: "new", LastEdited: LabelNow, Owner: ana},
		{ID: "1", Name: "renamed", LastEdited: "x", Owner: ana},
	}

	require.NoError(t, r.UpsertAll(ctx, ana, set))
	once := stored(t, s)
	require.NoError(t, r.UpsertAll(ctx, ana, set))
	assert.JSONEq(t, once, stored(t, s))

	var all []Project
	require.NoError(t, json.Unmarshal([]byte(once), &all))
	require.Len(t, all, 4)
	assert.Equal(t, ID("10"), all[0].ID)
	assert.Equal(t, "renamed", all[1].Name)
	assert.Equal(t, ID("2"), all[2].ID)
	assert.Nil(t, all[3].Owner)
}

func TestUpsertAll_GuestPartitionIsolated(t *testing.T) {
	r, s := newRepo(t)
	seed(t, s, `[
		{"id": "1", "name": "a", "lastEdited": "x", "owner": "ana@example.com"},
		{"id": "2", "name": "g", "lastEdited": "x", "owner": null},
		{"id": "3", "name": "literal", "lastEdited": "x", "owner": "guest"}
	]`)
	ctx := context.Background()

	require.NoError(t, r.UpsertAll(ctx, nil, []Project{{ID: "9", Name: "guest new", LastEdited: LabelNow}}))

	guests := r.ListForOwner(ctx, nil)
	require.Len(t, guests, 1)
	assert.Equal(t, ID("9"), guests[0].ID)
	assert.Len(t, r.ListForOwner(ctx, Owner("ana@example.com")), 1)
	assert.Len(t, r.ListForOwner(ctx, Owner("guest")), 1)
}

func TestDeleteOne_IsOwnerScoped(t *testing.T) {
	r, s := newRepo(t)
	seed(t, s, `[
		{"id": "7", "name": "mine", "lastEdited": "x", "owner": "ana@example.com"},
		{"id": "7", "name": "theirs", "lastEdited": "x", "owner": "bia@example.com"},
		{"id": "7", "name": "guest", "lastEdited": "x", "owner": null}
	]`)
	ctx := context.Background()

	require.NoError(t, r.DeleteOne(ctx, Owner("ana@example.com"), "7"))

	assert.Empty(t, r.ListForOwner(ctx, Owner("ana@example.com")))
	assert.Len(t, r.ListForOwner(ctx, Owner("bia@example.com")), 1)
	assert.Len(t, r.ListForOwner(ctx, nil), 1)

	require.NoError(t, r.DeleteOne(ctx, nil, "7"))
	assert.Empty(t, r.ListForOwner(ctx, nil))
	assert.Len(t, r.ListForOwner(ctx, Owner("bia@example.com")), 1)
}

func TestDeleteOne_MissingIDWritesNothing(t *testing.T) {
	r, s := newRepo(t)
	raw := `[{"id":"1","name":"a","lastEdited":"x","owner":"ana@example.com"}]`
	seed(t, s, raw)

	require.NoError(t, r.DeleteOne(context.Background(), Owner("ana@example.com"), "404"))
	assert.Equal(t, raw, stored(t, s))
}

func TestSaveImage(t *testing.T) {
	r, s := newRepo(t)
	seed(t, s, `[{"id":"1","name":"a","imageUrl":"/randomImages/01.jpg","lastEdited":"2 dias atrás","owner":"ana@example.com"}]`)
	ctx := context.Background()
	ana := Owner("ana@example.com")

	p, err := r.SaveImage(ctx, ana, "1", "data:image/jpeg;base64,EDITED")
	require.NoError(t, err)
	assert.Equal(t, LabelNow, p.LastEdited)
	assert.Equal(t, "data:image/jpeg;base64,EDITED", p.DisplaySource(), "imageData wins over imageUrl")

	got, err := r.Get(ctx, ana, "1")
	require.NoError(t, err)
	assert.Equal(t, "/randomImages/01.jpg", got.ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,EDITED", got.ImageData)
}

func TestSaveImage_NotFoundLeavesStorageUntouched(t *testing.T) {
	r, s := newRepo(t)
	raw := `[{"id":"1","name":"a","lastEdited":"x","owner":"bia@example.com"}]`
	seed(t, s, raw)

	_, err := r.SaveImage(context.Background(), Owner("ana@example.com"), "1", "data:image/jpeg;base64,X")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, raw, stored(t, s))
}

func TestCorruptCollectionIsEmptyAndOverwritten(t *testing.T) {
	r, s := newRepo(t)
	seed(t, s, `{not json`)
	ctx := context.Background()

	assert.Empty(t, r.ListForOwner(ctx, nil))
	assert.Equal(t, 0, r.Count(ctx))

	_, err := r.Create(ctx, nil, "fresh", "")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count(ctx))
}

func TestRename(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	ana := Owner("ana@example.com")

	p, err := r.Create(ctx, ana, "old", "")
	require.NoError(t, err)

	renamed, err := r.Rename(ctx, ana, p.ID, "Casamento na Praia")
	require.NoError(t, err)
	assert.Equal(t, "Casamento na Praia", renamed.Name)

	_, err = r.Rename(ctx, Owner("bia@example.com"), p.ID, "stolen")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIDUnmarshal(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[1, "2", 1700000000000]`), &ids))
	assert.Equal(t, []ID{"1", "2", "1700000000000"}, ids)

	var bad ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}

func TestOwnerHelpers(t *testing.T) {
	assert.Nil(t, Owner(""))
	assert.Equal(t, "guest", OwnerLabel(nil))
	assert.Equal(t, `"ana@example.com"`, OwnerLabel(Owner("ana@example.com")))
}

func TestImport_AllocatesIDsUniqueAcrossOwners(t *testing.T) {
	r, s := newRepo(t)
	seed(t, s, `[{"id": "1700000000000", "name": "old", "lastEdited": "x", "owner": "carla@example.com"}]`)
	ctx := context.Background()

	demo := []Project{
		{ID: "1", Name: "Retrato de Verão", ImageURL: "/randomImages/01.jpg", LastEdited: "2 dias atrás"},
		{ID: "2", Name: "Paisagem Urbana Noturna", ImageURL: "/randomImages/02.jpg", LastEdited: "5 dias atrás"},
	}

	for _, email := range []string{"ana@example.com", "bia@example.com"} {
		imported, err := r.Import(ctx, Owner(email), demo)
		require.NoError(t, err)
		require.Len(t, imported, 2)
		assert.Equal(t, "Retrato de Verão", imported[0].Name)
		assert.Equal(t, "2 dias atrás", imported[0].LastEdited)
		assert.Equal(t, email, *imported[1].Owner)
	}

	var all []Project
	require.NoError(t, json.Unmarshal([]byte(stored(t, s)), &all))
	require.Len(t, all, 5)

	seen := make(map[ID]int)
	for _, p := range all {
		seen[p.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s used more than once", id)
	}
	assert.NotContains(t, seen, ID("1"))

	ana := r.ListForOwner(ctx, Owner("ana@example.com"))
	require.Len(t, ana, 2)
	assert.Equal(t, "Retrato de Verão", ana[0].Name, "order is kept")
}
