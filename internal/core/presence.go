package core

import "sort"

// membership is the live member map of one presence channel, kept in
// insertion order so snapshots are stable.
type membership struct {
	order   []string
	members map[string]Member
}

func newMembership() *membership {
	return &membership{members: make(map[string]Member)}
}

func (ms *membership) hasUser(userID string) bool {
	for _, m := range ms.members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (ms *membership) remove(connID string) {
	delete(ms.members, connID)
	for i, id := range ms.order {
		if id == connID {
			ms.order = append(ms.order[:i], ms.order[i+1:]...)
			return
		}
	}
}

// PresenceStore maps presence channel names to their live membership for one
// namespace. It is not safe for concurrent use; the owning Namespace
// serializes access.
type PresenceStore struct {
	channels map[string]*membership
}

// NewPresenceStore returns an empty store.
func NewPresenceStore() *PresenceStore {
	return &PresenceStore{channels: make(map[string]*membership)}
}

// Join records member under its ConnectionID, replacing any previous entry
// for that connection. It reports whether the same user already had a live
// entry on the channel before the insert.
func (s *PresenceStore) Join(channel string, member Member) (alreadyMember bool) {
	ms, ok := s.channels[channel]
	if !ok {
		ms = newMembership()
		s.channels[channel] = ms
	}
	alreadyMember = ms.hasUser(member.UserID)
	if _, exists := ms.members[member.ConnectionID]; !exists {
		ms.order = append(ms.order, member.ConnectionID)
	}
	ms.members[member.ConnectionID] = member
	return alreadyMember
}

// Leave removes the entry for connID. The returned member has its connection
// id stripped; stillPresent reports whether another connection of the same
// user remains. ok is false when nothing was removed. The channel entry is
// dropped once its last member leaves.
func (s *PresenceStore) Leave(channel, connID string) (member Member, stillPresent, ok bool) {
	ms, tracked := s.channels[channel]
	if !tracked {
		return Member{}, false, false
	}
	m, exists := ms.members[connID]
	if !exists {
		return Member{}, false, false
	}
	ms.remove(connID)
	stillPresent = ms.hasUser(m.UserID)
	if len(ms.members) == 0 {
		delete(s.channels, channel)
	}
	return m.WithoutConnection(), stillPresent, true
}

// Snapshot lists the channel's members, one per distinct user. The first
// entry seen in insertion order wins.
func (s *PresenceStore) Snapshot(channel string) []Member {
	ms, ok := s.channels[channel]
	if !ok {
		return []Member{}
	}
	seen := make(map[string]struct{}, len(ms.order))
	out := make([]Member, 0, len(ms.order))
	for _, connID := range ms.order {
		m := ms.members[connID]
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Holds reports whether connID has an entry on channel.
func (s *PresenceStore) Holds(channel, connID string) bool {
	ms, ok := s.channels[channel]
	if !ok {
		return false
	}
	_, ok = ms.members[connID]
	return ok
}

// Tracked reports whether channel currently has any members.
func (s *PresenceStore) Tracked(channel string) bool {
	_, ok := s.channels[channel]
	return ok
}

// Channels returns the names of all tracked presence channels, sorted.
func (s *PresenceStore) Channels() []string {
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of entries (connections, not users) on channel.
func (s *PresenceStore) Size(channel string) int {
	if ms, ok := s.channels[channel]; ok {
		return len(ms.members)
	}
	return 0
}
