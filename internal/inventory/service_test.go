package inventory_test

import (
	"context"
	"errors"
	"testing"

	"libraryapi/internal/entity"
	"libraryapi/internal/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo records the last guarded transition so the tests can check what
// the service asked for.
type fakeRepo struct {
	inventory.Repository

	copy        entity.BookCopy
	allowedFrom []entity.CopyStatus
	to          entity.CopyStatus
	released    entity.CopyStatus
	addCount    int
}

func (f *fakeRepo) SetStatus(_ context.Context, _ string, allowedFrom []entity.CopyStatus, to entity.CopyStatus) (entity.BookCopy, error) {
	f.allowedFrom = allowedFrom
	f.to = to
	return f.copy, nil
}

func (f *fakeRepo) Release(_ context.Context, _ string, newStatus entity.CopyStatus) (entity.BookCopy, error) {
	f.released = newStatus
	return f.copy, nil
}

func (f *fakeRepo) AddCopies(_ context.Context, _ string, count int, _ string) ([]entity.BookCopy, error) {
	f.addCount = count
	return []entity.BookCopy{f.copy}, nil
}

func TestService_MarkCopy(t *testing.T) {
	repo := &fakeRepo{copy: entity.BookCopy{ID: "c1", Status: entity.CopyMaintenance}}
	svc := inventory.NewService(repo)

	_, err := svc.MarkCopy(context.Background(), "c1", entity.CopyMaintenance)
	require.NoError(t, err)
	assert.Equal(t, entity.CopyMaintenance, repo.to)
	assert.NotContains(t, repo.allowedFrom, entity.CopyIssued)

	// ISSUED is not a valid staff flag
	_, err = svc.MarkCopy(context.Background(), "c1", entity.CopyIssued)
	assert.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", entity.CodeOf(err))
}

func TestService_RestoreCopy(t *testing.T) {
	repo := &fakeRepo{copy: entity.BookCopy{ID: "c1", Status: entity.CopyAvailable}}
	svc := inventory.NewService(repo)

	_, err := svc.RestoreCopy(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, entity.CopyAvailable, repo.to)
	assert.ElementsMatch(t,
		[]entity.CopyStatus{entity.CopyMaintenance, entity.CopyDamaged},
		repo.allowedFrom)
}

func TestService_ReleaseCopy_RejectsIssuedTarget(t *testing.T) {
	repo := &fakeRepo{}
	svc := inventory.NewService(repo)

	_, err := svc.ReleaseCopy(context.Background(), "c1", entity.CopyIssued)
	assert.Error(t, err)

	_, err = svc.ReleaseCopy(context.Background(), "c1", entity.CopyAvailable)
	require.NoError(t, err)
	assert.Equal(t, entity.CopyAvailable, repo.released)
}

func TestService_AddCopies_RejectsNonPositiveCount(t *testing.T) {
	repo := &fakeRepo{}
	svc := inventory.NewService(repo)

	_, err := svc.AddCopies(context.Background(), "b1", 0, "A-1")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, entity.ErrNotFound))

	copies, err := svc.AddCopies(context.Background(), "b1", 3, "A-1")
	require.NoError(t, err)
	assert.Len(t, copies, 1)
	assert.Equal(t, 3, repo.addCount)
}
