package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }

// newTestStore returns a store whose clock is controlled through the
// returned setter, so liveness tests never sleep.
func newTestStore() (*Store, func(time.Time)) {
	st := NewStore(30 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	return st, func(t time.Time) { now = t }
}

func TestRegisterAssignsUniqueIDs(t *testing.T) {
	st, _ := newTestStore()
	dir := NewDirectory(st)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p, err := dir.Register(Registration{Name: "peer", Host: "10.0.0.1", Port: 9000})
		require.NoError(t, err)
		require.NotEmpty(t, p.ID)
		require.False(t, seen[p.ID], "duplicate peer id %s", p.ID)
		seen[p.ID] = true
		assert.True(t, p.Online)
		assert.Zero(t, p.LoadPercent)
	}
}

func TestRegisterRejectsFreeExceedingTotal(t *testing.T) {
	st, _ := newTestStore()
	dir := NewDirectory(st)

	_, err := dir.Register(Registration{
		Name: "bad", Host: "h", Port: 1,
		GPUMemoryTotalMB: i64(4096),
		GPUMemoryFreeMB:  i64(8192),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, dir.List(false), "failed registration must not insert a record")
}

func TestHeartbeatPartialUpdate(t *testing.T) {
	st, _ := newTestStore()
	dir := NewDirectory(st)

	p, err := dir.Register(Registration{
		Name: "w1", Host: "h", Port: 9001, HasGPU: true,
		GPUMemoryTotalMB: i64(8192),
		GPUMemoryFreeMB:  i64(4096),
	})
	require.NoError(t, err)

	// Only load present: free memory untouched
	got, err := dir.Heartbeat(p.ID, HeartbeatUpdate{LoadPercent: f64(42.5)})
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.LoadPercent)
	require.NotNil(t, got.GPUMemoryFreeMB)
	assert.EqualValues(t, 4096, *got.GPUMemoryFreeMB)

	// Only free memory present: load untouched
	got, err = dir.Heartbeat(p.ID, HeartbeatUpdate{GPUMemoryFreeMB: i64(2048)})
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.LoadPercent)
	require.NotNil(t, got.GPUMemoryFreeMB)
	assert.EqualValues(t, 2048, *got.GPUMemoryFreeMB)
}

func TestHeartbeatValidation(t *testing.T) {
	st, _ := newTestStore()
	dir := NewDirectory(st)

	p, err := dir.Register(Registration{Name: "w1", Host: "h", Port: 9001, GPUMemoryTotalMB: i64(8192)})
	require.NoError(t, err)

	_, err = dir.Heartbeat(p.ID, HeartbeatUpdate{LoadPercent: f64(-1)})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = dir.Heartbeat(p.ID, HeartbeatUpdate{LoadPercent: f64(100.5)})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = dir.Heartbeat(p.ID, HeartbeatUpdate{GPUMemoryFreeMB: i64(9000)})
	require.ErrorIs(t, err, ErrInvalidInput)

	// A rejected update must leave the record untouched
	peers := dir.List(false)
	require.Len(t, peers, 1)
	assert.Zero(t, peers[0].LoadPercent)
	assert.Nil(t, peers[0].GPUMemoryFreeMB)
}

func TestHeartbeatUnknownPeer(t *testing.T) {
	st, _ := newTestStore()
	dir := NewDirectory(st)

	_, err := dir.Heartbeat("no-such-peer", HeartbeatUpdate{})
	require.ErrorIs(t, err, ErrPeerNotFound)
}

func TestHeartbeatIsIdempotentOnIdentity(t *testing.T) {
	st, _ := newTestStore()
	dir := NewDirectory(st)

	p, err := dir.Register(Registration{Name: "w1", Host: "h", Port: 9001})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		got, err := dir.Heartbeat(p.ID, HeartbeatUpdate{LoadPercent: f64(10)})
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	}
	assert.Len(t, dir.List(false), 1, "heartbeats must never duplicate the record")
}

func TestLivenessTimeoutAndRevival(t *testing.T) {
	st, setNow := newTestStore()
	dir := NewDirectory(st)

	p, err := dir.Register(Registration{Name: "w1", Host: "h", Port: 9001})
	require.NoError(t, err)
	base := st.now()

	// Exactly at the timeout the peer is still online
	setNow(base.Add(30 * time.Second))
	require.Len(t, dir.List(true), 1)

	// One tick past the timeout it drops out of the online view but stays listed
	setNow(base.Add(30*time.Second + time.Millisecond))
	assert.Empty(t, dir.List(true))
	all := dir.List(false)
	require.Len(t, all, 1)
	assert.False(t, all[0].Online)

	// A heartbeat revives it no matter how long it was silent
	setNow(base.Add(24 * time.Hour))
	got, err := dir.Heartbeat(p.ID, HeartbeatUpdate{})
	require.NoError(t, err)
	assert.True(t, got.Online)
	require.Len(t, dir.List(true), 1)
}

func TestFindBestForModel(t *testing.T) {
	st, _ := newTestStore()
	dir := NewDirectory(st)

	_, err := dir.Register(Registration{
		Name: "small", Host: "h", Port: 1, HasGPU: true,
		GPUMemoryFreeMB: i64(4096),
		Models:          []ModelRef{{Name: "resnet50"}},
	})
	require.NoError(t, err)
	big, err := dir.Register(Registration{
		Name: "big", Host: "h", Port: 2, HasGPU: true,
		GPUMemoryFreeMB: i64(6000),
		Models:          []ModelRef{{Name: "resnet50", Framework: "pytorch"}},
	})
	require.NoError(t, err)

	got, ok := dir.FindBestForModel("resnet50")
	require.True(t, ok)
	assert.Equal(t, big.ID, got.ID)

	_, ok = dir.FindBestForModel("bert-large")
	assert.False(t, ok)
}
