package atelier_test

import (
	"context"
	"testing"

	"atelier-go/internal/atelier"
	"atelier-go/internal/model"
	"atelier-go/internal/testutil"
)

// fixture wires every service over one in-memory database with stubbed
// clock, key generator and hasher.
type fixture struct {
	db       atelier.Database
	clock    *testutil.StubClock
	accounts *atelier.Accounts
	sessions *atelier.Sessions
	media    *atelier.Media
	projects *atelier.Projects
	scenes   *atelier.SceneGraph
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDatabase(t)
	keys := testutil.NewStubKeyGenerator()
	clock := testutil.FixedClock()
	hasher := testutil.NewStubHasher()
	logger := atelier.NewNopLogger()

	return &fixture{
		db:       db,
		clock:    clock,
		accounts: atelier.NewAccounts(db, hasher, keys, clock, logger),
		sessions: atelier.NewSessions(db, keys, clock, logger),
		media:    atelier.NewMedia(db, keys, logger),
		projects: atelier.NewProjects(db, keys, clock, logger),
		scenes:   atelier.NewSceneGraph(db, logger),
	}
}

func (f *fixture) user(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.accounts.CreateUser(context.Background(), username, "secret")
	if err != nil {
		t.Fatalf("CreateUser(%q) error = %v", username, err)
	}
	return u
}

func (f *fixture) scene(t *testing.T, user *model.User) (*model.Project, *model.Scene) {
	t.Helper()
	project, err := f.projects.Create(context.Background(), user, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	scene, err := f.projects.CreateScene(context.Background(), project, nil, 1920, 1080)
	if err != nil {
		t.Fatalf("CreateScene() error = %v", err)
	}
	return project, scene
}

func (f *fixture) layer(t *testing.T, scene *model.Scene, id, z int64) {
	t.Helper()
	if err := f.scenes.UpsertLayer(context.Background(), scene, id, nil, z, true, false); err != nil {
		t.Fatalf("UpsertLayer(%d) error = %v", id, err)
	}
}

func testSprite(id, layer, z int64) model.Sprite {
	return model.Sprite{
		ID:    id,
		Layer: layer,
		X:     10,
		Y:     20,
		W:     64,
		H:     64,
		Z:     z,
	}
}
