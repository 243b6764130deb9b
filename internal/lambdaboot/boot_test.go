package lambdaboot

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	value string
	err   error
	calls []ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls = append(f.calls, *in)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(f.value)}}, nil
}

func TestLoadAPIKeyKeepsCurrent(t *testing.T) {
	f := &fakeSSM{value: "from-ssm"}
	key, err := LoadAPIKey(context.Background(), f, "from-env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
	assert.Empty(t, f.calls)
}

func TestLoadAPIKeyFromSSM(t *testing.T) {
	t.Setenv("BRUSHLINE_SSM_API_KEY_PARAM", "")
	f := &fakeSSM{value: "sk-ssm"}

	key, err := LoadAPIKey(context.Background(), f, "")
	require.NoError(t, err)
	assert.Equal(t, "sk-ssm", key)
	require.Len(t, f.calls, 1)
	assert.Equal(t, DefaultAPIKeyParam, aws.ToString(f.calls[0].Name))
	assert.True(t, aws.ToBool(f.calls[0].WithDecryption))
}

func TestLoadAPIKeyParamOverride(t *testing.T) {
	t.Setenv("BRUSHLINE_SSM_API_KEY_PARAM", "/brushline/dev/key")
	f := &fakeSSM{value: "sk-dev"}

	_, err := LoadAPIKey(context.Background(), f, "")
	require.NoError(t, err)
	assert.Equal(t, "/brushline/dev/key", aws.ToString(f.calls[0].Name))
}

func TestLoadAPIKeyErrors(t *testing.T) {
	_, err := LoadAPIKey(context.Background(), &fakeSSM{err: errors.New("access denied")}, "")
	assert.ErrorContains(t, err, "access denied")

	_, err = LoadAPIKey(context.Background(), &fakeSSM{value: ""}, "")
	assert.ErrorContains(t, err, "is empty")
}
