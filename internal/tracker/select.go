package tracker

// Peer selection: filter eligible peers, then pick the best-ranked one.
// Greedy and single-shot; no capacity reservation beyond the fact that the
// caller holds the store lock across select and assign.

// selectPeerLocked returns the best eligible peer for a model, or nil when
// none qualifies. Caller must hold s.mu and have refreshed liveness.
func (s *Store) selectPeerLocked(modelName string) *peerRecord {
	candidates := s.eligibleLocked(modelName)
	if len(candidates) == 0 {
		return nil
	}
	return bestPeer(candidates)
}

// eligibleLocked applies the hard filters: online, GPU-capable, and
// advertising an exact (case-sensitive) model name match.
func (s *Store) eligibleLocked(modelName string) []*peerRecord {
	var candidates []*peerRecord
	for _, id := range s.peerOrder {
		p := s.peers[id]
		if !p.Online || !p.HasGPU {
			continue
		}
		if p.servesModel(modelName) {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

func (p *peerRecord) servesModel(name string) bool {
	for _, m := range p.Models {
		if m.Name == name {
			return true
		}
	}
	return false
}

// bestPeer ranks candidates by descending free GPU memory, with unknown free
// memory treated as zero, then by ascending load. Ties beyond that keep the
// earliest-registered candidate.
func bestPeer(candidates []*peerRecord) *peerRecord {
	best := candidates[0]
	for _, p := range candidates[1:] {
		if freeMemory(p) > freeMemory(best) {
			best = p
			continue
		}
		if freeMemory(p) == freeMemory(best) && p.LoadPercent < best.LoadPercent {
			best = p
		}
	}
	return best
}

func freeMemory(p *peerRecord) int64 {
	if p.GPUMemoryFreeMB == nil {
		return 0
	}
	return *p.GPUMemoryFreeMB
}
