package repositories

import (
	"sort"

	"github.com/intega/platform/internal/models"
)

// buildConversations folds a user's messages, ordered oldest first, into one
// entry per peer. The most recently active conversation comes first.
func buildConversations(userID string, messages []models.Message) []models.Conversation {
	byPeer := make(map[string]*models.Conversation)
	for _, m := range messages {
		peer := m.ReceiverID
		if m.ReceiverID == userID {
			peer = m.SenderID
		}
		if peer == userID {
			continue
		}
		conv, ok := byPeer[peer]
		if !ok {
			conv = &models.Conversation{PeerID: peer}
			byPeer[peer] = conv
		}
		if !m.CreatedAt.Before(conv.LastMessage.CreatedAt) {
			conv.LastMessage = m
		}
		if m.ReceiverID == userID && !m.IsRead {
			conv.UnreadCount++
		}
	}

	out := make([]models.Conversation, 0, len(byPeer))
	for _, conv := range byPeer {
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessage.CreatedAt.Equal(out[j].LastMessage.CreatedAt) {
			return out[i].PeerID < out[j].PeerID
		}
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out
}
