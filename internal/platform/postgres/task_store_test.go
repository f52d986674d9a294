package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// TestTaskStoreIntegration runs a complete set of integration tests for the
// PostgresTaskStore implementation against a real database.
func TestTaskStoreIntegration(t *testing.T) {
	// Skip the integration test wrapper if not in integration test environment
	if !checkIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	t.Run("TestPostgresTaskStore_CreateAndGet", TestPostgresTaskStore_CreateAndGet)
	t.Run("TestPostgresTaskStore_UpdateVersionRace", TestPostgresTaskStore_UpdateVersionRace)
	t.Run("TestPostgresTaskStore_Delete", TestPostgresTaskStore_Delete)
	t.Run("TestPostgresTaskStore_ListDueBefore", TestPostgresTaskStore_ListDueBefore)
}

// TestPostgresTaskStore_CreateAndGet tests the Create/GetByID roundtrip,
// including the join-table link sets.
func TestPostgresTaskStore_CreateAndGet(t *testing.T) {
	// Skip if not in integration test environment
	if !checkIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	t.Parallel()

	db := getTestDB(t)

	withTestTx(t, db, func(t *testing.T, tx *sql.Tx) {
		taskStore := NewPostgresTaskStore(tx, nil)
		tagStore := NewPostgresTagStore(tx, nil)

		ctx := testContext(t)
		owner := uuid.New()

		t.Run("roundtrip_with_links", func(t *testing.T) {
			due := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Microsecond)
			task, err := domain.NewTask(owner, "Write quarterly report", "Finance numbers due Friday")
			require.NoError(t, err, "Failed to create test task")
			task.DueDate = &due

			tag, err := domain.NewTag("finance")
			require.NoError(t, err, "Failed to create test tag")
			require.NoError(t, tagStore.Create(ctx, tag), "Failed to insert test tag")
			task.LinkTag(tag.ID)

			require.NoError(t, taskStore.Create(ctx, task), "Failed to insert test task")

			retrieved, err := taskStore.GetByID(ctx, task.ID)
			require.NoError(t, err, "GetByID should find the created task")
			assert.Equal(t, task.ID, retrieved.ID, "Retrieved task should have same ID")
			assert.Equal(t, owner, retrieved.OwnerID, "Retrieved task should have correct owner")
			assert.Equal(t, "Write quarterly report", retrieved.Title)
			assert.Equal(t, "Finance numbers due Friday", retrieved.Description)
			assert.Equal(t, int64(1), retrieved.Version, "New task should start at version 1")
			require.NotNil(t, retrieved.DueDate, "Due date should survive the roundtrip")
			assert.WithinDuration(t, due, *retrieved.DueDate, time.Second)
			assert.Equal(t, []uuid.UUID{tag.ID}, retrieved.TagIDs, "Tag link should survive the roundtrip")
		})

		t.Run("null_description_and_due_date", func(t *testing.T) {
			task, err := domain.NewTask(owner, "Water plants", "")
			require.NoError(t, err, "Failed to create test task")
			require.NoError(t, taskStore.Create(ctx, task), "Failed to insert test task")

			retrieved, err := taskStore.GetByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Empty(t, retrieved.Description, "NULL description should read back empty")
			assert.Nil(t, retrieved.DueDate, "NULL due date should read back nil")
		})

		t.Run("non_existent_task", func(t *testing.T) {
			_, err := taskStore.GetByID(ctx, uuid.New())
			assert.ErrorIs(t, err, store.ErrTaskNotFound, "Error should be ErrTaskNotFound")
		})
	})
}

// TestPostgresTaskStore_UpdateVersionRace tests the optimistic version check
// in Update: a write with a stale version must fail with ErrConflict, and a
// write against a deleted task must fail with ErrTaskNotFound.
func TestPostgresTaskStore_UpdateVersionRace(t *testing.T) {
	// Skip if not in integration test environment
	if !checkIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	t.Parallel()

	db := getTestDB(t)

	withTestTx(t, db, func(t *testing.T, tx *sql.Tx) {
		taskStore := NewPostgresTaskStore(tx, nil)
		ctx := testContext(t)

		task, err := domain.NewTask(uuid.New(), "Renew passport", "")
		require.NoError(t, err, "Failed to create test task")
		require.NoError(t, taskStore.Create(ctx, task), "Failed to insert test task")

		t.Run("matching_version_bumps", func(t *testing.T) {
			task.Title = "Renew passport urgently"
			require.NoError(t, taskStore.Update(ctx, task), "Update with fresh version should succeed")
			assert.Equal(t, int64(2), task.Version, "Update should advance the caller's version")

			retrieved, err := taskStore.GetByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), retrieved.Version, "Stored version should advance")
			assert.Equal(t, "Renew passport urgently", retrieved.Title)
		})

		t.Run("stale_version_conflicts", func(t *testing.T) {
			stale := *task
			stale.Version = 1 // the row is at version 2 now
			stale.Title = "Lost update"

			err := taskStore.Update(ctx, &stale)
			assert.ErrorIs(t, err, store.ErrConflict, "Stale write should be rejected")

			retrieved, err := taskStore.GetByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, "Renew passport urgently", retrieved.Title,
				"Stale write should not have changed the row")
		})

		t.Run("deleted_task_not_found", func(t *testing.T) {
			gone, err := domain.NewTask(uuid.New(), "Ephemeral", "")
			require.NoError(t, err)
			require.NoError(t, taskStore.Create(ctx, gone))
			require.NoError(t, taskStore.Delete(ctx, gone.ID))

			err = taskStore.Update(ctx, gone)
			assert.ErrorIs(t, err, store.ErrTaskNotFound,
				"Update after delete should report not-found, not conflict")
		})
	})
}

// TestPostgresTaskStore_Delete tests that deleting a task cascades the join
// rows but leaves the linked entities in place.
func TestPostgresTaskStore_Delete(t *testing.T) {
	// Skip if not in integration test environment
	if !checkIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	t.Parallel()

	db := getTestDB(t)

	withTestTx(t, db, func(t *testing.T, tx *sql.Tx) {
		taskStore := NewPostgresTaskStore(tx, nil)
		tagStore := NewPostgresTagStore(tx, nil)
		ctx := testContext(t)

		tag, err := domain.NewTag("errands")
		require.NoError(t, err)
		require.NoError(t, tagStore.Create(ctx, tag))

		task, err := domain.NewTask(uuid.New(), "Pick up dry cleaning", "")
		require.NoError(t, err)
		task.LinkTag(tag.ID)
		require.NoError(t, taskStore.Create(ctx, task))

		require.NoError(t, taskStore.Delete(ctx, task.ID), "Delete should succeed")

		_, err = taskStore.GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound, "Deleted task should be gone")

		var linkCount int
		require.NoError(t, tx.QueryRowContext(context.Background(),
			`SELECT COUNT(*) FROM task_tags WHERE task_id = $1`, task.ID).Scan(&linkCount))
		assert.Zero(t, linkCount, "Join rows should cascade with the task")

		survivor, err := tagStore.GetByID(ctx, tag.ID)
		require.NoError(t, err, "Linked tag should survive the task deletion")
		assert.Equal(t, tag.ID, survivor.ID)

		assert.ErrorIs(t, taskStore.Delete(ctx, task.ID), store.ErrTaskNotFound,
			"Second delete should report not-found")
	})
}

// TestPostgresTaskStore_ListDueBefore tests the scanner feed query: only
// incomplete tasks with a due date at or before the cutoff, oldest first.
func TestPostgresTaskStore_ListDueBefore(t *testing.T) {
	// Skip if not in integration test environment
	if !checkIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	t.Parallel()

	db := getTestDB(t)

	withTestTx(t, db, func(t *testing.T, tx *sql.Tx) {
		taskStore := NewPostgresTaskStore(tx, nil)
		ctx := testContext(t)
		owner := uuid.New()
		now := time.Now().UTC()

		makeTask := func(title string, due *time.Time, complete bool) *domain.Task {
			task, err := domain.NewTask(owner, title, "")
			require.NoError(t, err, "Failed to create test task")
			task.DueDate = due
			task.Complete = complete
			require.NoError(t, taskStore.Create(ctx, task), "Failed to insert test task")
			return task
		}

		soon := now.Add(1 * time.Hour)
		sooner := now.Add(30 * time.Minute)
		far := now.Add(72 * time.Hour)

		dueSoon := makeTask("due soon", &soon, false)
		dueSooner := makeTask("due sooner", &sooner, false)
		makeTask("due far out", &far, false)
		makeTask("already done", &soon, true)
		makeTask("no due date", nil, false)

		due, err := taskStore.ListDueBefore(ctx, now.Add(24*time.Hour))
		require.NoError(t, err, "ListDueBefore should succeed")

		require.Len(t, due, 2, "Only incomplete tasks inside the cutoff should match")
		assert.Equal(t, dueSooner.ID, due[0].ID, "Results should be ordered by due date ascending")
		assert.Equal(t, dueSoon.ID, due[1].ID)
	})
}
