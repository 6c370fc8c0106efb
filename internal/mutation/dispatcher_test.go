package mutation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intega/platform/internal/query"
)

type recordingCache struct {
	invalidated []string
	prefixes    []string
	cleared     int
}

func (r *recordingCache) Invalidate(keys ...string)      { r.invalidated = append(r.invalidated, keys...) }
func (r *recordingCache) InvalidatePrefix(prefix string) { r.prefixes = append(r.prefixes, prefix) }
func (r *recordingCache) Clear()                         { r.cleared++ }

type recordingNotifier struct {
	got []Notification
}

func (r *recordingNotifier) Notify(n Notification) { r.got = append(r.got, n) }

func newTestDispatcher(t *testing.T) (*Dispatcher, *recordingCache, *recordingNotifier) {
	t.Helper()
	cache := &recordingCache{}
	notifier := &recordingNotifier{}
	d, err := NewDispatcher(DefaultGraph(), query.RegisteredKeys(), cache, notifier)
	require.NoError(t, err)
	return d, cache, notifier
}

func TestApplicationStatusInvalidatesBothLists(t *testing.T) {
	d, cache, _ := newTestDispatcher(t)

	status, err := Run(context.Background(), d, UpdateApplication, nil, func(context.Context) (string, error) {
		return "accepted", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "accepted", status)

	want := []string{query.KeyCompanyApplications, query.KeyStudentApplications}
	if diff := cmp.Diff(want, cache.invalidated, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("unexpected invalidations (-want +got):\n%s", diff)
	}
}

func TestFailureInvalidatesNothing(t *testing.T) {
	d, cache, notifier := newTestDispatcher(t)
	boom := errors.New("409 conflict")

	_, err := Run(context.Background(), d, Apply, nil, func(context.Context) (struct{}, error) {
		return struct{}{}, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, cache.invalidated)
	assert.Empty(t, cache.prefixes)

	require.Len(t, notifier.got, 1)
	assert.Equal(t, LevelError, notifier.got[0].Level)
	assert.Equal(t, Apply, notifier.got[0].Kind)
}

func TestParameterisedKeys(t *testing.T) {
	d, cache, _ := newTestDispatcher(t)

	_, err := Run(context.Background(), d, SendMessage, Params{"peerId": "p1"}, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/messages/with/p1", query.KeyConversations}, cache.invalidated)
	assert.Empty(t, cache.prefixes)

	cache.invalidated = nil
	_, err = Run(context.Background(), d, MarkMessageRead, nil, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{query.KeyConversations}, cache.invalidated)
	assert.Equal(t, []string{"/messages/with/"}, cache.prefixes, "missing parameter widens to a prefix")
}

func TestLogoutClearsCache(t *testing.T) {
	d, cache, _ := newTestDispatcher(t)
	_, err := Run(context.Background(), d, Logout, nil, func(context.Context) (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, cache.cleared)
}

func TestGraphIsChecked(t *testing.T) {
	graph := DefaultGraph()
	graph[ForwardDocument] = []string{"/documents/forwarded"}
	graph[Kind("archive")] = []string{query.KeyDocuments}
	delete(graph, SendMessage)

	_, err := NewDispatcher(graph, query.RegisteredKeys(), &recordingCache{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Contains(t, err.Error(), `"/documents/forwarded"`)
	assert.Contains(t, err.Error(), "no invalidation entry for send_message")

	_, err = NewDispatcher(DefaultGraph(), query.RegisteredKeys(), nil, nil)
	assert.Error(t, err)
}

func TestRunRejectsUnknownKind(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	called := false
	_, err := Run(context.Background(), d, Kind("nope"), nil, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.False(t, called)
}

func TestWarnNotifies(t *testing.T) {
	d, cache, notifier := newTestDispatcher(t)
	d.Warn(ShareDocument, errors.New("select a file to share"))
	require.Len(t, notifier.got, 1)
	assert.Equal(t, LevelWarning, notifier.got[0].Level)
	assert.Empty(t, cache.invalidated)
}

func TestRunAgainstRealCache(t *testing.T) {
	cache := query.NewCache(0)
	defer cache.Close()
	d, err := NewDispatcher(DefaultGraph(), query.RegisteredKeys(), cache, nil)
	require.NoError(t, err)

	ctx := context.Background()
	calls := 0
	list := func(context.Context) ([]string, error) {
		calls++
		return []string{"pending"}, nil
	}
	query.Fetch(ctx, cache, query.KeyStudentApplications, list)
	query.Fetch(ctx, cache, query.KeyStudentApplications, list)
	require.Equal(t, 1, calls)

	_, err = Run(ctx, d, UpdateApplication, nil, func(context.Context) (string, error) { return "accepted", nil })
	require.NoError(t, err)

	query.Fetch(ctx, cache, query.KeyStudentApplications, list)
	assert.Equal(t, 2, calls)
}
