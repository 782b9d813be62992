package services_test

import (
	"testing"

	"taskmate/backend/internal/cache"
	"taskmate/backend/internal/ordering"
	"taskmate/backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedListServedFromCache(t *testing.T) {
	db := setupDB(t)
	store := cache.NewMultiLevelCache(nil)
	t.Cleanup(func() { store.Close() })
	svc := services.NewCachedTaskService(services.NewTaskService(ordering.AutoSort{}), store)
	owner := newOwner()

	created, err := svc.CreateTask(db, owner, services.TaskInput{Title: "cached"})
	require.NoError(t, err)

	first, err := svc.ListTasks(db, owner)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Bypass the service and delete the row; the cached list still answers.
	require.NoError(t, db.Exec("DELETE FROM tasks WHERE id = ?", created.ID).Error)

	second, err := svc.ListTasks(db, owner)
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestCachedMutationInvalidates(t *testing.T) {
	db := setupDB(t)
	store := cache.NewMultiLevelCache(nil)
	t.Cleanup(func() { store.Close() })
	svc := services.NewCachedTaskService(services.NewTaskService(ordering.AutoSort{}), store)
	owner := newOwner()

	task, err := svc.CreateTask(db, owner, services.TaskInput{Title: "v1"})
	require.NoError(t, err)

	_, err = svc.ListTasks(db, owner) // warm the list cache
	require.NoError(t, err)
	_, err = svc.GetTaskByID(db, owner, task.ID) // warm the entity cache
	require.NoError(t, err)

	title := "v2"
	_, err = svc.UpdateTask(db, owner, task.ID, services.TaskPatch{Title: &title})
	require.NoError(t, err)

	got, err := svc.GetTaskByID(db, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)

	list, err := svc.ListTasks(db, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v2", list[0].Title)
}

func TestCachedKeysAreOwnerScoped(t *testing.T) {
	db := setupDB(t)
	store := cache.NewMultiLevelCache(nil)
	t.Cleanup(func() { store.Close() })
	svc := services.NewCachedTaskService(services.NewTaskService(ordering.AutoSort{}), store)
	alice, bob := newOwner(), newOwner()

	task, err := svc.CreateTask(db, alice, services.TaskInput{Title: "alice's"})
	require.NoError(t, err)

	// Warm alice's entity cache, then probe as bob: the cache must not
	// short-circuit the ownership check.
	_, err = svc.GetTaskByID(db, alice, task.ID)
	require.NoError(t, err)

	_, err = svc.GetTaskByID(db, bob, task.ID)
	assert.ErrorIs(t, err, services.ErrTaskNotFound)

	lists, err := svc.ListTasks(db, bob)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestCachedStatsInvalidatedByMutation(t *testing.T) {
	db := setupDB(t)
	store := cache.NewMultiLevelCache(nil)
	t.Cleanup(func() { store.Close() })
	svc := services.NewCachedTaskService(services.NewTaskService(ordering.AutoSort{}), store)
	owner := newOwner()

	stats, err := svc.TaskStats(db, owner)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	_, err = svc.CreateTask(db, owner, services.TaskInput{Title: "counted"})
	require.NoError(t, err)

	stats, err = svc.TaskStats(db, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Pending)
}
