package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ModelRef describes one model a peer can serve. Only Name participates in
// matching; version and framework are advertisement metadata.
type ModelRef struct {
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	Framework string `json:"framework,omitempty"`
}

// peerRecord is the store-owned mutable state for one compute node.
type peerRecord struct {
	ID               string
	Name             string
	Host             string
	Port             int
	HasGPU           bool
	GPUMemoryTotalMB *int64
	GPUMemoryFreeMB  *int64
	Models           []ModelRef
	LoadPercent      float64
	LastHeartbeat    time.Time
	Online           bool
}

// PeerInfo is the immutable snapshot handed to callers.
type PeerInfo struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Host             string     `json:"host"`
	Port             int        `json:"port"`
	HasGPU           bool       `json:"has_gpu"`
	GPUMemoryTotalMB *int64     `json:"gpu_memory_total_mb"`
	GPUMemoryFreeMB  *int64     `json:"gpu_memory_free_mb"`
	Models           []ModelRef `json:"models"`
	LoadPercent      float64    `json:"current_load_percent"`
	LastHeartbeat    time.Time  `json:"last_heartbeat"`
	Online           bool       `json:"is_online"`
}

func (p *peerRecord) snapshot() PeerInfo {
	models := make([]ModelRef, len(p.Models))
	copy(models, p.Models)
	return PeerInfo{
		ID:               p.ID,
		Name:             p.Name,
		Host:             p.Host,
		Port:             p.Port,
		HasGPU:           p.HasGPU,
		GPUMemoryTotalMB: cloneInt64(p.GPUMemoryTotalMB),
		GPUMemoryFreeMB:  cloneInt64(p.GPUMemoryFreeMB),
		Models:           models,
		LoadPercent:      p.LoadPercent,
		LastHeartbeat:    p.LastHeartbeat,
		Online:           p.Online,
	}
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Registration is the input to Directory.Register. Memory fields are
// nullable: absent means unknown, not zero.
type Registration struct {
	Name             string
	Host             string
	Port             int
	HasGPU           bool
	GPUMemoryTotalMB *int64
	GPUMemoryFreeMB  *int64
	Models           []ModelRef
}

// HeartbeatUpdate carries the optional fields a heartbeat may refresh.
// Absent fields leave the current value untouched.
type HeartbeatUpdate struct {
	GPUMemoryFreeMB *int64
	LoadPercent     *float64
}

// Directory maintains peer records and their liveness classification.
type Directory struct {
	s *Store
}

func NewDirectory(s *Store) *Directory {
	return &Directory{s: s}
}

// Register creates a peer record with a fresh ID and marks it online. There
// is no uniqueness constraint on name or address; duplicate registrations
// create distinct peers.
func (d *Directory) Register(reg Registration) (PeerInfo, error) {
	if err := validateMemory(reg.GPUMemoryTotalMB, reg.GPUMemoryFreeMB); err != nil {
		return PeerInfo{}, err
	}
	models := make([]ModelRef, len(reg.Models))
	copy(models, reg.Models)

	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	p := &peerRecord{
		ID:               uuid.NewString(),
		Name:             reg.Name,
		Host:             reg.Host,
		Port:             reg.Port,
		HasGPU:           reg.HasGPU,
		GPUMemoryTotalMB: cloneInt64(reg.GPUMemoryTotalMB),
		GPUMemoryFreeMB:  cloneInt64(reg.GPUMemoryFreeMB),
		Models:           models,
		LastHeartbeat:    d.s.now(),
		Online:           true,
	}
	d.s.peers[p.ID] = p
	d.s.peerOrder = append(d.s.peerOrder, p.ID)
	return p.snapshot(), nil
}

// Heartbeat applies a partial update and refreshes liveness. A heartbeat
// always revives a peer, no matter how long it was offline.
func (d *Directory) Heartbeat(peerID string, upd HeartbeatUpdate) (PeerInfo, error) {
	if upd.LoadPercent != nil && (*upd.LoadPercent < 0 || *upd.LoadPercent > 100) {
		return PeerInfo{}, fmt.Errorf("%w: load percent %v outside [0,100]", ErrInvalidInput, *upd.LoadPercent)
	}

	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	p, ok := d.s.peers[peerID]
	if !ok {
		return PeerInfo{}, ErrPeerNotFound
	}
	if upd.GPUMemoryFreeMB != nil {
		if err := validateMemory(p.GPUMemoryTotalMB, upd.GPUMemoryFreeMB); err != nil {
			return PeerInfo{}, err
		}
	}
	// Validation done; mutate as the final step.
	if upd.GPUMemoryFreeMB != nil {
		p.GPUMemoryFreeMB = cloneInt64(upd.GPUMemoryFreeMB)
	}
	if upd.LoadPercent != nil {
		p.LoadPercent = *upd.LoadPercent
	}
	p.LastHeartbeat = d.s.now()
	p.Online = true
	return p.snapshot(), nil
}

// List returns peer snapshots in insertion order. Liveness is re-evaluated
// for every peer before filtering; this is where offline transitions become
// visible on the lazy path.
func (d *Directory) List(onlyOnline bool) []PeerInfo {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.refreshLivenessLocked()
	out := make([]PeerInfo, 0, len(d.s.peerOrder))
	for _, id := range d.s.peerOrder {
		p := d.s.peers[id]
		if onlyOnline && !p.Online {
			continue
		}
		out = append(out, p.snapshot())
	}
	return out
}

// FindBestForModel runs the selection algorithm against the current peer set.
// The second return is false when no peer is eligible.
func (d *Directory) FindBestForModel(modelName string) (PeerInfo, bool) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.refreshLivenessLocked()
	best := d.s.selectPeerLocked(modelName)
	if best == nil {
		return PeerInfo{}, false
	}
	return best.snapshot(), true
}

func validateMemory(total, free *int64) error {
	if free != nil && *free < 0 {
		return fmt.Errorf("%w: negative free GPU memory %d", ErrInvalidInput, *free)
	}
	if total != nil && *total < 0 {
		return fmt.Errorf("%w: negative total GPU memory %d", ErrInvalidInput, *total)
	}
	if total != nil && free != nil && *free > *total {
		return fmt.Errorf("%w: free GPU memory %d exceeds total %d", ErrInvalidInput, *free, *total)
	}
	return nil
}
