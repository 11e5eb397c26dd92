package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
)

func notifyKey(destinatario, referencia string) string {
	return destinatario + "\x00" + referencia
}

func (s *Store) NotificationExists(ctx context.Context, destinatario, referencia string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.notifyKeys[notifyKey(destinatario, referencia)]
	return ok, nil
}

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := notifyKey(n.Destinatario, n.Referencia)
	if _, ok := s.notifyKeys[key]; ok {
		return false, nil
	}
	ensureID(&n.ID)
	if n.DataEnvio.IsZero() {
		n.DataEnvio = s.now().UTC()
	}
	s.notifications.put(n.ID, *n)
	s.notifyKeys[key] = n.ID
	return true, nil
}

func (s *Store) ListNotifications(ctx context.Context, destinatario string, unreadOnly bool, limit int) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Notification, 0)
	for _, n := range s.notifications.all() {
		if n.Destinatario != destinatario {
			continue
		}
		if unreadOnly && n.Lida {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DataEnvio.After(out[j].DataEnvio)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, destinatario string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications.get(id)
	if !ok || n.Destinatario != destinatario {
		return apperr.NotFound("notificacao", id)
	}
	n.Lida = true
	s.notifications.put(id, n)
	return nil
}

// NotificationCount returns the number of stored notifications.
func (s *Store) NotificationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications.rows)
}
