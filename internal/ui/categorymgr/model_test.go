package categorymgr

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskkeeper/internal/keys"
	"github.com/nhle/taskkeeper/internal/kv"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/store"
)

type deleteCall struct {
	id     string
	detach bool
}

type fixture struct {
	cats  *store.CategoryStore
	tasks *store.TaskStore
	calls []deleteCall
}

func newManager(t *testing.T) (Model, *fixture) {
	t.Helper()
	ctx := context.Background()
	mem := kv.NewMemoryStore()

	fx := &fixture{
		cats:  store.NewCategoryStore(mem),
		tasks: store.NewTaskStore(mem),
	}
	fx.cats.Load(ctx)
	fx.tasks.Load(ctx)

	del := func(ctx context.Context, id string, detach bool) bool {
		fx.calls = append(fx.calls, deleteCall{id: id, detach: detach})
		return fx.cats.Delete(ctx, id)
	}
	m := New(fx.cats, fx.tasks, del, keys.DefaultKeyMap(), 100, 30)
	return m, fx
}

func press(m Model, r rune) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// complete marks the open confirm form as submitted and lets the model
// react to it.
func complete(m Model) (Model, tea.Cmd) {
	m.confirmForm.State = huh.StateCompleted
	return m.Update(struct{}{})
}

func TestDeleteWithDetachCallsDeleteFunc(t *testing.T) {
	m, fx := newManager(t)
	ctx := context.Background()
	c, err := fx.cats.Add(ctx, model.CategoryDraft{Name: "Home", Color: DefaultColor})
	require.NoError(t, err)
	fx.tasks.Add(ctx, model.TaskDraft{Title: "Fix sink", CategoryID: &c.ID})

	m, _ = m.Update(m.Init()())
	assert.Contains(t, m.View(), "Home (1)")

	m, _ = press(m, 'd')
	require.Equal(t, modeConfirmDelete, m.mode)

	m.fb.confirm = true
	m.fb.detach = true
	m, cmd := complete(m)
	require.NotNil(t, cmd)

	m, _ = m.Update(cmd())
	assert.Equal(t, []deleteCall{{id: c.ID, detach: true}}, fx.calls)
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.View(), "Category deleted")
	assert.Empty(t, fx.cats.All())
}

func TestDeleteKeepsTasksByDefault(t *testing.T) {
	m, fx := newManager(t)
	ctx := context.Background()
	c, err := fx.cats.Add(ctx, model.CategoryDraft{Name: "Work"})
	require.NoError(t, err)

	m, _ = m.Update(m.Init()())
	m, _ = press(m, 'd')
	m.fb.confirm = true
	_, cmd := complete(m)
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []deleteCall{{id: c.ID, detach: false}}, fx.calls)
}

func TestDeleteCancelled(t *testing.T) {
	m, fx := newManager(t)
	_, err := fx.cats.Add(context.Background(), model.CategoryDraft{Name: "Work"})
	require.NoError(t, err)

	m, _ = m.Update(m.Init()())
	m, _ = press(m, 'd')
	m, cmd := complete(m)

	assert.Nil(t, cmd)
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, fx.calls)
	assert.Len(t, fx.cats.All(), 1)
}

func TestSaveDuplicateNameShowsError(t *testing.T) {
	m, fx := newManager(t)
	_, err := fx.cats.Add(context.Background(), model.CategoryDraft{Name: "Home"})
	require.NoError(t, err)

	m, _ = m.Update(m.Init()())
	m, _ = press(m, 'n')
	require.Equal(t, modeForm, m.mode)
	m.fb.name = "  HOME "

	m, _ = m.Update(m.save()())
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.View(), "already exists")
	assert.Len(t, fx.cats.All(), 1)
}
