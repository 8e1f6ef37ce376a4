package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gcmp/internal/history"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Action: ActionType, Input: "1 + 2", Buffer: "1 + 2"},
		{Seq: 2, Action: ActionKey, Input: "equals", Buffer: "3"},
		{Seq: 3, Action: ActionApply, Input: "sqr", Buffer: "9"},
		{Seq: 4, Action: ActionKey, Input: "div", Buffer: "9 / "},
		{Seq: 5, Action: ActionType, Input: "0", Buffer: "9 / 0"},
		{Seq: 6, Action: ActionKey, Input: "equals", Buffer: "inf", Error: "DIVIDE_BY_ZERO"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Action: ActionApply}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: ActionKey, Input: "equals", Buffer: "inf"}))

	err := assertTraceContains(trace, Assertion{Action: ActionKey, Input: "equals", Buffer: "4"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), `[6] key "equals" -> "inf" (DIVIDE_BY_ZERO)`)
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name    string
		actions []string
		wantErr string
	}{
		{"labels in order", []string{"type:1 + 2", "apply:sqr", "key:div"}, ""},
		{"action names", []string{"type", "key", "apply"}, ""},
		{"gaps allowed", []string{"type:1 + 2", "type:0"}, ""},
		{"wrong order", []string{"apply:sqr", "type:1 + 2"}, "should be before"},
		{"missing", []string{"type:1 + 2", "recall"}, "missing step: recall"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceOrder(trace, Assertion{Actions: tt.actions})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Action: ActionKey, Count: 3}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: ActionKey, Input: "equals", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: ActionRecall, Count: 0}))

	err := assertTraceCount(trace, Assertion{Action: ActionType, Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func newAssertionStore(t *testing.T) *history.Store {
	t.Helper()
	st, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	_, err = st.Record(ctx, history.Entry{SessionID: "s1", Input: "1 + 2", Result: "3"})
	require.NoError(t, err)
	_, err = st.Record(ctx, history.Entry{SessionID: "s1", Input: "3 * 3", Result: "9"})
	require.NoError(t, err)
	_, err = st.Record(ctx, history.Entry{SessionID: "s2", Input: "1 + 2", Result: "3"})
	require.NoError(t, err)
	return st
}

func TestAssertFinalState(t *testing.T) {
	ctx := context.Background()
	st := newAssertionStore(t)

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name: "match",
			assertion: Assertion{
				Table:  "history",
				Where:  map[string]any{"input": "3 * 3"},
				Expect: map[string]any{"result": "9", "seq": 2, "session_id": "s1"},
			},
		},
		{
			name: "integer matches stored text",
			assertion: Assertion{
				Table:  "history",
				Where:  map[string]any{"seq": 1},
				Expect: map[string]any{"result": 3},
			},
		},
		{
			name: "value mismatch",
			assertion: Assertion{
				Table:  "history",
				Where:  map[string]any{"seq": 2},
				Expect: map[string]any{"result": "10"},
			},
			wantErr: `field "result" = 10`,
		},
		{
			name: "row not found",
			assertion: Assertion{
				Table:  "history",
				Where:  map[string]any{"input": "7"},
				Expect: map[string]any{"result": "7"},
			},
			wantErr: "row not found",
		},
		{
			name: "ambiguous",
			assertion: Assertion{
				Table:  "history",
				Where:  map[string]any{"input": "1 + 2"},
				Expect: map[string]any{"result": "3"},
			},
			wantErr: "multiple rows matched",
		},
		{
			name: "missing column",
			assertion: Assertion{
				Table:  "history",
				Where:  map[string]any{"seq": 1},
				Expect: map[string]any{"output": "3"},
			},
			wantErr: `field "output" not present`,
		},
		{
			name: "unsafe table name",
			assertion: Assertion{
				Table:  "history; DROP TABLE history",
				Expect: map[string]any{"result": "3"},
			},
			wantErr: "invalid table name",
		},
		{
			name: "unsafe column name",
			assertion: Assertion{
				Table:  "history",
				Where:  map[string]any{"seq OR 1=1": 1},
				Expect: map[string]any{"result": "3"},
			},
			wantErr: "invalid column name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(ctx, st, tt.assertion)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildWhereClause_SortedAndParameterized(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]any{"session_id": "s1", "input": "1 + 2"})
	require.NoError(t, err)
	assert.Equal(t, "input = ? AND session_id = ?", sql)
	assert.Equal(t, []any{"1 + 2", "s1"}, args)

	sql, args, err = buildWhereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Nil(t, args)
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(nil, nil))
	assert.False(t, stateValuesEqual("a", nil))
	assert.True(t, stateValuesEqual("a", "a"))
	assert.True(t, stateValuesEqual("a", []byte("a")))
	assert.True(t, stateValuesEqual(3, int64(3)))
	assert.True(t, stateValuesEqual(3, "3"))
	assert.False(t, stateValuesEqual(3, "3.0"))
	assert.True(t, stateValuesEqual(int64(4), int64(4)))
	assert.True(t, stateValuesEqual(true, int64(1)))
	assert.False(t, stateValuesEqual(false, int64(1)))
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Action: ActionApply},
		{Type: AssertTraceCount, Action: ActionApply, Count: 2},
		{Type: AssertFinalState, Table: "history", Expect: map[string]any{"seq": 1}},
		{Type: "bogus"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "trace_count")
	assert.Contains(t, errs[1], "final_state requires database context")
	assert.Contains(t, errs[2], `unknown assertion type "bogus"`)
}
