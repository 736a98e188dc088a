package hakim_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/modernice/hakim"
	mock_hakim "github.com/modernice/hakim/mocks"
	"github.com/stretchr/testify/assert"
)

func TestFallback(t *testing.T) {
	ctrl := gomock.NewController(t)

	primaryErr := errors.New("model is currently loading")
	primary := mock_hakim.NewMockModel(ctrl)
	primary.EXPECT().Chat(gomock.Any(), "prompt").Return("", primaryErr)

	secondary := mock_hakim.NewMockModel(ctrl)
	secondary.EXPECT().Chat(gomock.Any(), "prompt").Return("answer", nil)

	answer, err := hakim.Fallback(primary, secondary).Chat(context.Background(), "prompt")

	assert.NoError(t, err)
	assert.Equal(t, "answer", answer)
}

func TestFallback_firstSuccessWins(t *testing.T) {
	ctrl := gomock.NewController(t)

	primary := mock_hakim.NewMockModel(ctrl)
	primary.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("answer", nil)

	secondary := mock_hakim.NewMockModel(ctrl)

	answer, err := hakim.Fallback(primary, secondary).Chat(context.Background(), "prompt")

	assert.NoError(t, err)
	assert.Equal(t, "answer", answer)
}

func TestFallback_allFail(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	model := hakim.Fallback(
		hakim.ModelFunc(func(context.Context, string) (string, error) { return "", errA }),
		hakim.ModelFunc(func(context.Context, string) (string, error) { return "", errB }),
	)

	_, err := model.Chat(context.Background(), "prompt")

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestFallback_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	model := hakim.Fallback(
		hakim.ModelFunc(func(ctx context.Context, _ string) (string, error) {
			calls++
			return "", ctx.Err()
		}),
		hakim.ModelFunc(func(context.Context, string) (string, error) {
			calls++
			return "answer", nil
		}),
	)

	_, err := model.Chat(ctx, "prompt")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
