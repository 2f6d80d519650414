package cronjobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/autosend"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/mocks"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type autosendFixture struct {
	members   *mocks.MockMemberRepository
	threads   *mocks.MockDMThreadRepository
	outbound  *mocks.MockOutboundMessageRepository
	messenger *mocks.MockSlackMessenger
	job       Job
	now       time.Time
}

func newAutosendFixture(t *testing.T) *autosendFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &autosendFixture{
		members:   mocks.NewMockMemberRepository(ctrl),
		threads:   mocks.NewMockDMThreadRepository(ctrl),
		outbound:  mocks.NewMockOutboundMessageRepository(ctrl),
		messenger: mocks.NewMockSlackMessenger(ctrl),
		now:       time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	gate, err := service.NewAutosendService(service.AutosendServiceOptions{Members: f.members, Threads: f.threads})
	require.NoError(t, err)
	outreach, err := service.NewOutreachService(service.OutreachServiceOptions{
		Repos:     service.OutreachRepos{Members: f.members, Threads: f.threads, Outbound: f.outbound},
		Messenger: f.messenger,
		Clock:     clock,
	})
	require.NoError(t, err)

	f.job, err = NewAutosendJob(AutosendJobOptions{
		TenantID: "default",
		Outbound: f.outbound,
		Members:  f.members,
		Gate:     gate,
		Outreach: outreach,
		Clock:    clock,
	})
	require.NoError(t, err)
	return f
}

func queuedMsg(id, member, body string) *model.OutboundMessage {
	return &model.OutboundMessage{
		ID: id, TenantID: "default", MemberID: member, Body: body,
		Origin: model.MessageOriginAuto, Status: model.OutboundStatusQueued,
	}
}

func TestAutosendJob_SendsPermittedAndCountsDenials(t *testing.T) {
	f := newAutosendFixture(t)
	ctx := context.Background()
	slackUser := "U1"
	lastContact := f.now.Add(-48 * time.Hour)

	closed := &model.Member{
		ID: "m1", TenantID: "default", SlackUserID: &slackUser,
		ContactState: model.ContactStateClosed, LastContactedAt: &lastContact,
	}
	open := &model.Member{ID: "m2", TenantID: "default", ContactState: model.ContactStateOpen}

	f.outbound.EXPECT().ListQueued(ctx, "default", defaultAutosendBatch).Return([]*model.OutboundMessage{
		queuedMsg("msg1", "m1", "hello"),
		queuedMsg("msg2", "m2", "hi"),
		queuedMsg("msg3", "m1", "second"),
	}, nil)
	f.members.EXPECT().GetByID(gomock.Any(), "default", "m1").Return(closed, nil)
	f.members.EXPECT().GetByID(gomock.Any(), "default", "m2").Return(open, nil)
	f.threads.EXPECT().GetByMemberID(gomock.Any(), "default", "m1").Return(nil, data.ErrDMThreadNotFound)
	f.threads.EXPECT().GetByMemberID(gomock.Any(), "default", "m2").Return(nil, data.ErrDMThreadNotFound)

	f.outbound.EXPECT().Claim(gomock.Any(), "msg1").Return(true, nil)
	f.messenger.EXPECT().OpenDM(gomock.Any(), "U1").Return("D1", nil)
	f.messenger.EXPECT().PostMessage(gomock.Any(), "D1", "hello").Return("1772445600.000100", nil)
	f.outbound.EXPECT().Mark(gomock.Any(), gomock.Any()).Return(nil)
	f.members.EXPECT().TouchLastContacted(gomock.Any(), "m1", f.now).Return(nil)
	f.threads.EXPECT().RecordOutbound(gomock.Any(), model.UpsertDMThreadRequest{
		TenantID: "default", MemberID: "m1", ChannelID: "D1", LastMessageAt: f.now,
	}).Return(&model.DMThread{}, nil)

	details, err := f.job.Run(ctx)
	require.NoError(t, err)
	summary, ok := details.(*AutosendSummary)
	require.True(t, ok)
	assert.Equal(t, 3, summary.Queued)
	assert.Equal(t, 1, summary.Deferred)
	assert.Equal(t, 2, summary.Evaluated)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, map[string]int{autosend.ReasonNoThread: 1}, summary.Denied)
}

func TestAutosendJob_LostClaimIsNotSent(t *testing.T) {
	f := newAutosendFixture(t)
	ctx := context.Background()
	slackUser := "U1"
	replied := f.now.Add(-30 * time.Hour)
	last := f.now.Add(-25 * time.Hour)

	f.outbound.EXPECT().ListQueued(ctx, "default", defaultAutosendBatch).
		Return([]*model.OutboundMessage{queuedMsg("msg1", "m1", "hello")}, nil)
	f.members.EXPECT().GetByID(gomock.Any(), "default", "m1").
		Return(&model.Member{ID: "m1", TenantID: "default", SlackUserID: &slackUser}, nil)
	f.threads.EXPECT().GetByMemberID(gomock.Any(), "default", "m1").
		Return(&model.DMThread{LastMessageAt: &last, MemberRepliedAt: &replied}, nil)
	f.outbound.EXPECT().Claim(gomock.Any(), "msg1").Return(false, nil)

	details, err := f.job.Run(ctx)
	require.NoError(t, err)
	summary := details.(*AutosendSummary)
	assert.Equal(t, 1, summary.LostClaims)
	assert.Zero(t, summary.Sent)
}

func TestAutosendJob_AllDeliveriesFailing(t *testing.T) {
	f := newAutosendFixture(t)
	ctx := context.Background()
	slackUser := "U1"
	last := f.now.Add(-72 * time.Hour)

	f.outbound.EXPECT().ListQueued(ctx, "default", defaultAutosendBatch).
		Return([]*model.OutboundMessage{queuedMsg("msg1", "m1", "hello")}, nil)
	f.members.EXPECT().GetByID(gomock.Any(), "default", "m1").Return(&model.Member{
		ID: "m1", TenantID: "default", SlackUserID: &slackUser,
		ContactState: model.ContactStateClosed, LastContactedAt: &last,
	}, nil)
	f.threads.EXPECT().GetByMemberID(gomock.Any(), "default", "m1").Return(nil, data.ErrDMThreadNotFound)
	f.outbound.EXPECT().Claim(gomock.Any(), "msg1").Return(true, nil)
	f.messenger.EXPECT().OpenDM(gomock.Any(), "U1").Return("", errors.New("invalid_auth"))
	f.outbound.EXPECT().Mark(gomock.Any(), gomock.Any()).Return(nil)

	details, err := f.job.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, details.(*AutosendSummary).Failed)
}

func TestAutosendJob_ListFailure(t *testing.T) {
	f := newAutosendFixture(t)
	f.outbound.EXPECT().ListQueued(gomock.Any(), "default", defaultAutosendBatch).Return(nil, errors.New("db down"))

	_, err := f.job.Run(context.Background())
	require.Error(t, err)
}
