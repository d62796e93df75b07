package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/stagehandhq/stagehand/internal/errors"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// SlackGateway serves the Slack Events API over HTTP and posts through the Web
// API. It is both the Gateway implementation and the inbound event source.
type SlackGateway struct {
	signingSecret   string
	allowedChannels map[string]struct{}
	handler         Handler
	server          *http.Server
	port            int
	client          *slack.Client
	botUserID       string
}

func NewSlackGateway(port int, signingSecret, botToken string, allowedChannels []string, handler Handler) *SlackGateway {
	allowed := make(map[string]struct{}, len(allowedChannels))
	for _, ch := range allowedChannels {
		if ch != "" {
			allowed[ch] = struct{}{}
		}
	}
	return &SlackGateway{
		signingSecret:   signingSecret,
		allowedChannels: allowed,
		handler:         handler,
		port:            port,
		client:          slack.New(botToken),
	}
}

func (s *SlackGateway) Start(ctx context.Context) error {
	if auth, err := s.client.AuthTestContext(ctx); err == nil {
		s.botUserID = auth.UserID
	} else {
		slog.Warn("Slack auth test failed, self-reactions will not be filtered", "error", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/slack/events", s.handleEvents)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		slog.Info("Slack gateway listening", "port", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Slack server failed", "error", err)
		}
	}()

	<-ctx.Done()
	return s.server.Shutdown(context.Background())
}

func (s *SlackGateway) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *SlackGateway) PostMessage(ctx context.Context, channel, threadTS, text string) (MessageRef, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	ch, ts, err := s.client.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return MessageRef{}, errors.Wrap(err, "failed to post Slack message")
	}
	return MessageRef{Channel: ch, Timestamp: ts}, nil
}

func (s *SlackGateway) UpdateMessage(ctx context.Context, ref MessageRef, text string) error {
	_, _, _, err := s.client.UpdateMessageContext(ctx, ref.Channel, ref.Timestamp, slack.MsgOptionText(text, false))
	if err != nil {
		return errors.Wrap(err, "failed to update Slack message")
	}
	return nil
}

// AddReaction is best-effort: reaction seeding must never affect session state.
func (s *SlackGateway) AddReaction(ctx context.Context, ref MessageRef, name string) {
	err := s.client.AddReactionContext(ctx, name, slack.NewRefToMessage(ref.Channel, ref.Timestamp))
	if err != nil {
		slog.Debug("Add reaction failed", "reaction", name, "channel", ref.Channel, "error", err)
	}
}

func (s *SlackGateway) RemoveReaction(ctx context.Context, ref MessageRef, name string) {
	err := s.client.RemoveReactionContext(ctx, name, slack.NewRefToMessage(ref.Channel, ref.Timestamp))
	if err != nil {
		slog.Debug("Remove reaction failed", "reaction", name, "channel", ref.Channel, "error", err)
	}
}

func (s *SlackGateway) Health(ctx context.Context) error {
	if s.server == nil {
		return errors.Transient("Slack server not started")
	}
	if _, err := s.client.AuthTestContext(ctx); err != nil {
		return errors.Transient("Slack connection failed")
	}
	return nil
}

func (s *SlackGateway) channelAllowed(channel string) bool {
	if len(s.allowedChannels) == 0 {
		return true
	}
	_, ok := s.allowedChannels[channel]
	return ok
}

func (s *SlackGateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sv, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, err := sv.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := sv.Ensure(); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if eventsAPIEvent.Type == slackevents.URLVerification {
		var resp *slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(resp.Challenge))
		return
	}

	if eventsAPIEvent.Type == slackevents.CallbackEvent {
		s.dispatchCallback(r.Context(), eventsAPIEvent.InnerEvent)
	}

	w.WriteHeader(http.StatusOK)
}

func (s *SlackGateway) dispatchCallback(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	if s.handler == nil {
		return
	}

	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		if !s.channelAllowed(ev.Channel) {
			slog.Info("Ignoring mention from non-allowed channel", "channel", ev.Channel)
			return
		}
		threadTS := ev.ThreadTimeStamp
		if threadTS == "" {
			threadTS = ev.TimeStamp
		}
		s.handler.HandleMessage(ctx, MessageEvent{
			Ref:      MessageRef{Channel: ev.Channel, Timestamp: ev.TimeStamp},
			ThreadTS: threadTS,
			UserID:   ev.User,
			Text:     ev.Text,
		})

	case *slackevents.ReactionAddedEvent:
		// The bot seeds its own reactions on confirmation messages; skip them.
		if ev.User == s.botUserID {
			return
		}
		if !s.channelAllowed(ev.Item.Channel) {
			return
		}
		s.handler.HandleReaction(ctx, ReactionEvent{
			Ref:      MessageRef{Channel: ev.Item.Channel, Timestamp: ev.Item.Timestamp},
			UserID:   ev.User,
			Reaction: ev.Reaction,
		})
	}
}
