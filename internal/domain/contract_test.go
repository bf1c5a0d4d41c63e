package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractStatus_Next(t *testing.T) {
	tests := []struct {
		name   string
		from   ContractStatus
		event  ContractEvent
		wantOK bool
		want   ContractStatus
	}{
		{"pending accept", ContractStatusPending, ContractEventAccept, true, ContractStatusInProgress},
		{"awaiting accept", ContractStatusAwaiting, ContractEventAccept, true, ContractStatusInProgress},
		{"in progress accept", ContractStatusInProgress, ContractEventAccept, true, ContractStatusInProgress},
		{"pending reject", ContractStatusPending, ContractEventReject, true, ContractStatusCancelled},
		{"awaiting reject", ContractStatusAwaiting, ContractEventReject, true, ContractStatusCancelled},
		{"in progress reject", ContractStatusInProgress, ContractEventReject, true, ContractStatusCancelled},
		{"in review reject", ContractStatusInReview, ContractEventReject, true, ContractStatusCancelled},
		{"in progress submit", ContractStatusInProgress, ContractEventSubmitWork, true, ContractStatusInReview},
		{"in review resubmit", ContractStatusInReview, ContractEventSubmitWork, true, ContractStatusInReview},
		{"in review approve", ContractStatusInReview, ContractEventApproveWork, true, ContractStatusCompleted},

		{"pending submit", ContractStatusPending, ContractEventSubmitWork, false, ""},
		{"pending approve", ContractStatusPending, ContractEventApproveWork, false, ""},
		{"in progress approve", ContractStatusInProgress, ContractEventApproveWork, false, ""},
		{"in review accept", ContractStatusInReview, ContractEventAccept, false, ""},
		{"completed reject", ContractStatusCompleted, ContractEventReject, false, ""},
		{"completed accept", ContractStatusCompleted, ContractEventAccept, false, ""},
		{"cancelled accept", ContractStatusCancelled, ContractEventAccept, false, ""},
		{"cancelled submit", ContractStatusCancelled, ContractEventSubmitWork, false, ""},
		{"unknown event", ContractStatusPending, ContractEvent("withdraw"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.from.Next(tt.event)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContractStatus_TerminalAcceptNothing(t *testing.T) {
	events := []ContractEvent{ContractEventAccept, ContractEventReject, ContractEventSubmitWork, ContractEventApproveWork}
	for _, status := range []ContractStatus{ContractStatusCompleted, ContractStatusCancelled} {
		assert.True(t, status.IsTerminal())
		for _, event := range events {
			_, ok := status.Next(event)
			assert.False(t, ok, "%s on %s", event, status)
		}
	}
}

func TestContract_Apply(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	t.Run("accept stamps start date", func(t *testing.T) {
		c := &Contract{Status: ContractStatusPending}

		changed, err := c.Apply(ContractEventAccept, nil, now)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, ContractStatusInProgress, c.Status)
		require.NotNil(t, c.StartDate)
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), *c.StartDate)
	})

	t.Run("accept on in progress leaves start date alone", func(t *testing.T) {
		start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
		c := &Contract{Status: ContractStatusInProgress, StartDate: &start}

		changed, err := c.Apply(ContractEventAccept, nil, now)

		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, start, *c.StartDate)
	})

	t.Run("submit work records description and attachment", func(t *testing.T) {
		c := &Contract{Status: ContractStatusInProgress}

		changed, err := c.Apply(ContractEventSubmitWork, &WorkSubmission{
			Description:   "  final cut  ",
			AttachmentKey: "contracts/x/work/y.zip",
		}, now)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, ContractStatusInReview, c.Status)
		assert.Equal(t, "final cut", c.WorkDescription)
		assert.Equal(t, "contracts/x/work/y.zip", c.WorkAttachment)
		require.NotNil(t, c.WorkSubmittedAt)
		assert.Equal(t, now, *c.WorkSubmittedAt)
	})

	t.Run("submit work accepts an empty description", func(t *testing.T) {
		c := &Contract{Status: ContractStatusInProgress, WorkDescription: "old notes"}

		changed, err := c.Apply(ContractEventSubmitWork, &WorkSubmission{
			Description:   " ",
			AttachmentKey: "contracts/x/work/z.pdf",
		}, now)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, ContractStatusInReview, c.Status)
		assert.Empty(t, c.WorkDescription)
		assert.Equal(t, "contracts/x/work/z.pdf", c.WorkAttachment)
	})

	t.Run("approve work stamps end date", func(t *testing.T) {
		c := &Contract{Status: ContractStatusInReview}

		_, err := c.Apply(ContractEventApproveWork, nil, now)

		require.NoError(t, err)
		assert.Equal(t, ContractStatusCompleted, c.Status)
		require.NotNil(t, c.EndDate)
		assert.Equal(t, now, *c.EndDate)
	})

	t.Run("invalid transition leaves contract unchanged", func(t *testing.T) {
		c := &Contract{Status: ContractStatusInProgress}

		changed, err := c.Apply(ContractEventApproveWork, nil, now)

		assert.False(t, changed)
		assert.Equal(t, ETRANSITION, ErrorCode(err))
		assert.Contains(t, ErrorMessage(err), "in progress")
		assert.Equal(t, ContractStatusInProgress, c.Status)
		assert.Nil(t, c.EndDate)
	})
}

func TestParseContractStatusFilter(t *testing.T) {
	status, ok := ParseContractStatusFilter("Accepted")
	assert.True(t, ok)
	assert.Equal(t, ContractStatusInProgress, status)

	status, ok = ParseContractStatusFilter("in_review")
	assert.True(t, ok)
	assert.Equal(t, ContractStatusInReview, status)

	_, ok = ParseContractStatusFilter("archived")
	assert.False(t, ok)
}
