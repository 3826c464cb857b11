// Package relay 房间内的实时协同编辑中继与语音房间信令
package relay

import (
	"encoding/json"
	"errors"
)

// 中继事件名，与前端约定
const (
	EventTyping         = "typing"
	EventCreateRoom     = "createRoom"
	EventRoomCreated    = "roomCreated"
	EventJoinRoom       = "joinRoom"
	EventUserJoined     = "userJoined"
	EventLeaveRoom      = "leaveRoom"
	EventDisconnectUser = "disconnectUser"
	EventError          = "error"
)

var (
	ErrRoomRequired = errors.New("roomId is required")
	ErrNotInRoom    = errors.New("not a member of this room")
	ErrUnknownEvent = errors.New("unknown event")
)

// Envelope 单帧消息
type Envelope struct {
	Event   string `json:"event"`
	RoomID  string `json:"roomId,omitempty"`
	Content string `json:"content,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

func (e Envelope) encode() []byte {
	data, _ := json.Marshal(e)
	return data
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, ErrUnknownEvent
	}
	return env, nil
}

func errorEnvelope(roomID string, err error) Envelope {
	return Envelope{Event: EventError, RoomID: roomID, Content: err.Error()}
}
