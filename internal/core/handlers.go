package core

import (
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// current reports whether a hook belongs to the live connection.
func (s *Session) current(id string) bool {
	return id != "" && id == s.connID && s.conn != nil
}

func (s *Session) handleOpen(id string) {
	if !s.current(id) {
		s.log.Debug().Str("conn_id", id).Msg("ignoring open from stale connection")
		return
	}
	if !s.send(proto.NewInit(s.username)) {
		s.log.Warn().Str("conn_id", id).Msg("init not sent")
		return
	}
	s.status = StatusJoined
	s.log.Info().Str("conn_id", id).Str("user", s.username).Str("room", s.roomID).Msg("joined")
	s.publish()
}

func (s *Session) handleMessage(id string, raw []byte) {
	if !s.current(id) {
		return
	}
	ev, err := proto.Decode(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("conn_id", id).Msg("dropping inbound frame")
		return
	}

	switch ev := ev.(type) {
	case proto.InitEvent:
		if s.status != StatusConnecting {
			return
		}
		s.status = StatusJoined
	case proto.UserListEvent:
		s.presence.Replace(ev.Users)
	case proto.UserJoinedEvent:
		s.appendMessage(systemMessage(ev.Notice))
		s.send(proto.NewRefreshUserList(s.username))
	case proto.UserLeftEvent:
		s.appendMessage(systemMessage(ev.Notice))
		s.send(proto.NewRefreshUserList(s.username))
	case proto.ChatEvent:
		s.appendMessage(chatMessage(ev.Sender, ev.Text))
	}
	s.publish()
}

func (s *Session) handleError(id string, err error) {
	if !s.current(id) {
		return
	}
	s.log.Warn().Err(err).Str("conn_id", id).Msg("connection error")
	s.appendMessage(systemMessage(NoticeConnectError))
	s.publish()
}

// handleClose keeps connID so the retry can be matched against it.
func (s *Session) handleClose(id string, err error) {
	if !s.current(id) {
		s.log.Debug().Str("conn_id", id).Msg("ignoring close from stale connection")
		return
	}
	s.conn = nil
	s.status = StatusDisconnected
	s.appendMessage(systemMessage(NoticeDisconnected))

	ev := s.log.Info().Str("conn_id", id).Dur("retry_in", s.policy.Delay())
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("disconnected")

	s.retry.Stop()
	s.retry = s.policy.Schedule(id, func(token string) {
		s.post(func() { s.handleRetry(token) })
	})
	s.publish()
}

func (s *Session) handleRetry(token string) {
	if token == "" || token != s.connID || s.conn != nil || s.username == "" {
		s.log.Debug().Str("token", token).Msg("discarding stale reconnect")
		return
	}
	s.retry = nil
	s.log.Info().Str("previous_conn_id", token).Msg("reconnecting")
	s.connect()
	s.publish()
}
