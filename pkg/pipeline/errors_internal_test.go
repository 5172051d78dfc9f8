package pipeline

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorChansAddConcurrently(t *testing.T) {
	t.Parallel()

	ecs := errorChans{}
	ec1 := &errorChan{}
	ec2 := &errorChan{}
	doneChan := make(chan struct{}, 2)

	for _, ec := range []*errorChan{ec1, ec2} {
		ec := ec
		go func() {
			ecs.add(ec)
			doneChan <- struct{}{}
		}()
	}

	<-doneChan
	<-doneChan
	assert.ElementsMatch(t, []*errorChan{ec1, ec2}, ecs.list)
}

func TestMergeErrorsAllNil(t *testing.T) {
	t.Parallel()

	outErrorChan := mergeErrors(newErrorChan("read", nil), newErrorChan("parse", nil))
	gotErr, open := <-outErrorChan
	assert.False(t, open)
	assert.NoError(t, gotErr)
}

var (
	errRead  = errors.New("read failed")
	errParse = errors.New("parse failed")
)

func TestMergeErrorsNamesTheStage(t *testing.T) {
	t.Parallel()

	chan1 := make(chan error, 1)
	chan2 := make(chan error, 1)
	chan1 <- errRead
	chan2 <- errParse
	close(chan1)
	close(chan2)

	gotErrs := []error{}
	for err := range mergeErrors(newErrorChan("read", chan1), newErrorChan("parse", chan2)) {
		gotErrs = append(gotErrs, err)
	}

	sort.Slice(gotErrs, func(i, j int) bool {
		return gotErrs[i].Error() < gotErrs[j].Error()
	})

	require.Len(t, gotErrs, 2)
	require.ErrorIs(t, gotErrs[0], errParse)
	assert.Equal(t, "parse: parse failed", gotErrs[0].Error())
	require.ErrorIs(t, gotErrs[1], errRead)
	assert.Equal(t, "read: read failed", gotErrs[1].Error())
}

func TestWaitForPipelineReturnsFirstError(t *testing.T) {
	t.Parallel()

	chan1 := make(chan error, 1)
	chan1 <- errRead
	close(chan1)

	err := waitForPipeline(newErrorChan("read", chan1), newErrorChan("parse", nil))
	require.ErrorIs(t, err, errRead)
}
