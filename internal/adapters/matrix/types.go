package matrix

// --- Auth ---

type loginRequest struct {
	Type                     string `json:"type"` // m.login.password
	User                     string `json:"user"`
	Password                 string `json:"password"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	DeviceID    string `json:"device_id"`
}

// --- Rooms ---

type joinedRoomsDTO struct {
	JoinedRooms []string `json:"joined_rooms"`
}

type inviteRequest struct {
	UserID string `json:"user_id"`
}

// también es el body del force-join de la admin API de Synapse
type forceJoinRequest struct {
	UserID string `json:"user_id"`
}

// --- Sync ---

type syncResponse struct {
	NextBatch string `json:"next_batch"`
	Rooms     struct {
		Invite map[string]struct {
			InviteState struct {
				Events []Event `json:"events"`
			} `json:"invite_state"`
		} `json:"invite"`
		Join map[string]struct {
			Timeline struct {
				Events []Event `json:"events"`
			} `json:"timeline"`
		} `json:"join"`
	} `json:"rooms"`
}

// Event es el evento crudo tal como lo manda el homeserver.
type Event struct {
	EventID        string         `json:"event_id"`
	Type           string         `json:"type"`
	Sender         string         `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
}

// --- Messages (backfill) ---

type messagesDTO struct {
	Chunk []Event `json:"chunk"`
	End   string  `json:"end"`
}
