package chat

// Participant - участник диалога, как его видит клиент.
type Participant struct {
	ID          string `json:"user_id"`
	DisplayName string `json:"user_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Conversation - выбранный диалог: id плюс упорядоченный список участников.
type Conversation struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
}

// OtherParticipant returns the first participant that is not the local user.
// Used for display and for typing-indicator attribution in two-party chats.
func (c Conversation) OtherParticipant(localUserID string) (Participant, bool) {
	for _, p := range c.Participants {
		if p.ID != localUserID {
			return p, true
		}
	}
	return Participant{}, false
}
