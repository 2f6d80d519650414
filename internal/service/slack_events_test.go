package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/autosend"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/slackauth"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/mocks"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/mocks/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

var slackNow = time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)

func signedRequest(body string, ts time.Time) InboundRequest {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	return InboundRequest{
		Timestamp: stamp,
		Signature: slackauth.Sign(testSigningSecret, stamp, []byte(body)),
		Body:      []byte(body),
		Now:       slackNow,
	}
}

func newSlackEventService(t *testing.T, opts SlackEventServiceOptions) *SlackEventService {
	t.Helper()
	if opts.SigningSecret == "" {
		opts.SigningSecret = testSigningSecret
	}
	svc, err := NewSlackEventService(opts)
	require.NoError(t, err)
	return svc
}

func TestNewSlackEventService_RequiresSecret(t *testing.T) {
	_, err := NewSlackEventService(SlackEventServiceOptions{Events: memstore.NewSlackEvents()})
	require.ErrorIs(t, err, slackauth.ErrMissingSecret)

	_, err = NewSlackEventService(SlackEventServiceOptions{SigningSecret: "s"})
	require.Error(t, err)
}

func TestSlackEventService_Handle_Challenge(t *testing.T) {
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: memstore.NewSlackEvents()})

	res, err := svc.Handle(context.Background(), signedRequest(`{"type":"url_verification","challenge":"abc123"}`, slackNow))
	require.NoError(t, err)
	assert.Equal(t, InboundChallenge, res.Kind)
	assert.Equal(t, "abc123", res.Challenge)
}

func TestSlackEventService_Handle_Rejections(t *testing.T) {
	store := memstore.NewSlackEvents()
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: store})
	body := `{"type":"event_callback","event_id":"Ev1","event":{"type":"app_mention"}}`

	tests := []struct {
		name   string
		mutate func(*InboundRequest)
		reason string
	}{
		{"missing timestamp", func(r *InboundRequest) { r.Timestamp = "" }, slackauth.ReasonMissingTimestamp},
		{"missing signature", func(r *InboundRequest) { r.Signature = "" }, slackauth.ReasonMissingSignature},
		{"garbage timestamp", func(r *InboundRequest) { r.Timestamp = "soon" }, slackauth.ReasonInvalidTimestamp},
		{"tampered body", func(r *InboundRequest) { r.Body = append([]byte(nil), body+" "...) }, slackauth.ReasonSignatureMismatch},
		{"stale", func(r *InboundRequest) { *r = signedRequest(body, slackNow.Add(-301*time.Second)) }, slackauth.ReasonTimestampOutRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := signedRequest(body, slackNow)
			tt.mutate(&req)

			_, err := svc.Handle(context.Background(), req)
			reason, ok := slackauth.IsVerifyError(err)
			require.True(t, ok, "expected verify error, got %v", err)
			assert.Equal(t, tt.reason, reason)
		})
	}
	assert.Equal(t, 0, store.Len())
}

func TestSlackEventService_Handle_UnsupportedShape(t *testing.T) {
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: memstore.NewSlackEvents()})

	_, err := svc.Handle(context.Background(), signedRequest(`{"type":"app_rate_limited"}`, slackNow))
	require.ErrorIs(t, err, model.ErrUnsupportedPayload)
	_, isAuth := slackauth.IsVerifyError(err)
	assert.False(t, isAuth)
}

func TestSlackEventService_Handle_FirstWriteWins(t *testing.T) {
	store := memstore.NewSlackEvents()
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: store})
	ctx := context.Background()

	first := `{"type":"event_callback","event_id":"Ev9","team_id":"T1","event":{"type":"reaction_added"},"attempt":1}`
	second := `{"type":"event_callback","event_id":"Ev9","team_id":"T1","event":{"type":"reaction_added"},"attempt":2}`

	res, err := svc.Handle(ctx, signedRequest(first, slackNow))
	require.NoError(t, err)
	assert.Equal(t, InboundAccepted, res.Kind)

	res, err = svc.Handle(ctx, signedRequest(second, slackNow))
	require.NoError(t, err)
	assert.Equal(t, InboundDuplicate, res.Kind)
	assert.JSONEq(t, first, string(res.Event.Payload))
	assert.Equal(t, 1, store.Len())
}

func TestSlackEventService_Ingest_RecordsMemberReply(t *testing.T) {
	ctrl := gomock.NewController(t)
	threads := mocks.NewMockDMThreadRepository(ctrl)
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: memstore.NewSlackEvents(), Threads: threads})
	ctx := context.Background()

	body := `{"type":"event_callback","event_id":"EvDM","event":{"type":"message","channel_type":"im","channel":"D123","user":"U1","ts":"1772463845.000200"}}`
	wantAt := time.Unix(1772463845, 200000).UTC()

	// Redelivery records the reply again; the repository keeps the latest timestamp.
	threads.EXPECT().RecordReply(ctx, "D123", wantAt).Return(true, nil).Times(2)

	_, err := svc.Handle(ctx, signedRequest(body, slackNow))
	require.NoError(t, err)
	res, err := svc.Handle(ctx, signedRequest(body, slackNow))
	require.NoError(t, err)
	assert.Equal(t, InboundDuplicate, res.Kind)
}

func TestSlackEventService_RedeliveredReplyAfterOutbound(t *testing.T) {
	ctx := context.Background()
	threads := memstore.NewDMThreads()
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: memstore.NewSlackEvents(), Threads: threads})
	member := &model.Member{ID: "m1", TenantID: "default", ContactState: model.ContactStateOpen}

	_, err := threads.RecordOutbound(ctx, model.UpsertDMThreadRequest{
		TenantID: "default", MemberID: "m1", ChannelID: "D123", LastMessageAt: slackNow.Add(-time.Hour),
	})
	require.NoError(t, err)

	body := `{"type":"event_callback","event_id":"EvReply","event":{"type":"message","channel_type":"im","channel":"D123","user":"U1","ts":"` +
		strconv.FormatInt(slackNow.Unix(), 10) + `.000100"}}`
	res, err := svc.Handle(ctx, signedRequest(body, slackNow))
	require.NoError(t, err)
	require.Equal(t, InboundAccepted, res.Kind)

	th, err := threads.GetByMemberID(ctx, "default", "m1")
	require.NoError(t, err)
	require.NotNil(t, th.MemberRepliedAt)

	// A follow-up goes out, then Slack redelivers the earlier reply.
	_, err = threads.RecordOutbound(ctx, model.UpsertDMThreadRequest{
		TenantID: "default", MemberID: "m1", ChannelID: "D123", LastMessageAt: slackNow.Add(time.Minute),
	})
	require.NoError(t, err)
	res, err = svc.Handle(ctx, signedRequest(body, slackNow.Add(2*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, InboundDuplicate, res.Kind)

	th, err = threads.GetByMemberID(ctx, "default", "m1")
	require.NoError(t, err)
	assert.Nil(t, th.MemberRepliedAt, "redelivered reply must not reopen the gate")
	assert.Equal(t,
		autosend.Deny(autosend.ReasonAwaitingReply),
		autosend.Evaluate(autosend.Input{Member: member, Thread: th, Now: slackNow.Add(25 * time.Hour)}))
}

func TestSlackEventService_Ingest_IgnoresBotMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	threads := mocks.NewMockDMThreadRepository(ctrl)
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: memstore.NewSlackEvents(), Threads: threads})

	body := `{"type":"event_callback","event_id":"EvBot","event":{"type":"message","channel_type":"im","channel":"D123","bot_id":"B1","ts":"1772463845.000200"}}`
	_, err := svc.Handle(context.Background(), signedRequest(body, slackNow))
	require.NoError(t, err)
}

func TestSlackEventService_Ingest_MarkerShortCircuit(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMarkerStore(ctrl)
	events := mocks.NewMockSlackEventRepository(ctrl)
	markers := core.NewMarkerCache(core.MarkerCacheOptions{Store: store, Prefix: "slack:event:", TTL: time.Hour})
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: events, Markers: markers})
	ctx := context.Background()
	stored := &model.SlackEvent{ID: "row-1", EventID: "Ev7"}

	store.EXPECT().SetIfNotExists(ctx, "slack:event:Ev7", []byte("1"), time.Hour).Return(false, nil)
	events.EXPECT().GetByEventID(ctx, "Ev7").Return(stored, nil)

	res, err := svc.Ingest(ctx, IngestParams{
		Envelope: &model.SlackEnvelope{Type: model.SlackEnvelopeEventCallback, EventID: "Ev7"},
		Now:      slackNow,
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Same(t, stored, res.Event)
}

func TestSlackEventService_Ingest_StoreFailureReleasesMarker(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMarkerStore(ctrl)
	events := mocks.NewMockSlackEventRepository(ctrl)
	markers := core.NewMarkerCache(core.MarkerCacheOptions{Store: store, Prefix: "m:"})
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: events, Markers: markers})
	ctx := context.Background()

	store.EXPECT().SetIfNotExists(ctx, "m:Ev8", []byte("1"), core.DefaultMarkerTTL).Return(true, nil)
	events.EXPECT().InsertIfAbsent(ctx, gomock.Any()).Return(nil, false, errors.New("db down"))
	store.EXPECT().Delete(gomock.Any(), "m:Ev8").Return(true, nil)

	_, err := svc.Ingest(ctx, IngestParams{
		Envelope: &model.SlackEnvelope{Type: model.SlackEnvelopeEventCallback, EventID: "Ev8"},
	})
	require.Error(t, err)
}

func TestSlackEventService_Ingest_MarkerErrorFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMarkerStore(ctrl)
	markers := core.NewMarkerCache(core.MarkerCacheOptions{Store: store})
	events := memstore.NewSlackEvents()
	svc := newSlackEventService(t, SlackEventServiceOptions{Events: events, Markers: markers})

	store.EXPECT().SetIfNotExists(gomock.Any(), "Ev3", gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))

	res, err := svc.Ingest(context.Background(), IngestParams{
		Envelope: &model.SlackEnvelope{Type: model.SlackEnvelopeEventCallback, EventID: "Ev3", Raw: []byte(`{}`)},
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestParseSlackTS(t *testing.T) {
	got, ok := parseSlackTS("1700000000.000100")
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 100000).UTC(), got)

	_, ok = parseSlackTS("")
	assert.False(t, ok)
	_, ok = parseSlackTS("NaN")
	assert.False(t, ok)
}
