package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ediltrentini/site-backend/errs"
)

func baseConfig() map[string]string {
	return map[string]string{
		"ADMIN_PASSWORD":    "pw",
		"SESSION_SECRET":    "secret",
		"RESEND_API_KEY":    "re_key",
		"RESEND_FROM_EMAIL": "noreply@example.com",
		"CONTACT_RECIPIENT": "owner@example.com",
	}
}

func TestGetters(t *testing.T) {
	c := map[string]string{"N": "42", "BAD": "x", "B": "true", "L": " a, ,b "}

	assert.Equal(t, 42, GetInt(c, "N", 1))
	assert.Equal(t, 1, GetInt(c, "BAD", 1))
	assert.True(t, GetBool(c, "B", false))
	assert.True(t, GetBool(c, "MISSING", true))
	assert.False(t, GetBool(c, "BAD", false))
	assert.Equal(t, []string{"a", "b"}, GetList(c, "L"))
	assert.Nil(t, GetList(c, "MISSING"))
	assert.Equal(t, "d", GetString(nil, "X", "d"))
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(baseConfig())
	require.NoError(t, err)

	assert.Equal(t, "3000", s.Port)
	assert.Equal(t, 180*time.Second, s.ReadTimeout)
	assert.Equal(t, "sqlite", s.DBType)
	assert.Equal(t, "admin", s.AdminUsername)
	assert.Equal(t, StorageDisk, s.StorageBackend)
	assert.False(t, s.CookieSecure)
	assert.False(t, s.Twilio.Enabled())
}

func TestLoad_ReportsAllMissingSecrets(t *testing.T) {
	_, err := Load(map[string]string{"SESSION_SECRET": "secret"})
	require.Error(t, err)
	assert.True(t, errs.IsConfigMissingError(err))
	for _, key := range []string{"ADMIN_PASSWORD", "RESEND_API_KEY", "RESEND_FROM_EMAIL", "CONTACT_RECIPIENT"} {
		assert.Contains(t, err.Error(), key)
	}
	assert.NotContains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_DatabaseTypes(t *testing.T) {
	c := baseConfig()
	c["DB_TYPE"] = "supa"
	c["SUPABASE_DB_HOST"] = "db.example.com"
	c["SUPABASE_DB_USER"] = "u"
	s, err := Load(c)
	require.NoError(t, err)
	assert.Contains(t, s.DBDSN, "host=db.example.com")
	assert.Contains(t, s.DBDSN, "port=5432")

	c = baseConfig()
	c["DB_TYPE"] = "postgres"
	_, err = Load(c)
	assert.True(t, errs.IsConfigMissingError(err))

	c["DB_TYPE"] = "mongo"
	_, err = Load(c)
	assert.ErrorIs(t, err, errs.ErrConfigInvalid)
}

func TestLoad_S3NeedsBucket(t *testing.T) {
	c := baseConfig()
	c["STORAGE_BACKEND"] = "s3"
	_, err := Load(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")

	c["S3_BUCKET"] = "site-images"
	s, err := Load(c)
	require.NoError(t, err)
	assert.Equal(t, "site-images", s.S3.Bucket)
}

type fakeSSM struct {
	pages [][]types.Parameter
	err   error
	calls int
}

func (f *fakeSSM) GetParametersByPath(_ context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &ssm.GetParametersByPathOutput{Parameters: f.pages[f.calls]}
	f.calls++
	if f.calls < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestOverlaySSM(t *testing.T) {
	client := &fakeSSM{pages: [][]types.Parameter{
		{{Name: aws.String("/site/prod/SESSION_SECRET"), Value: aws.String("from-ssm")}},
		{{Name: aws.String("/site/prod/RESEND_API_KEY"), Value: aws.String("re_ssm")}},
	}}
	c := map[string]string{"SESSION_SECRET": "local"}

	n, err := OverlaySSM(context.Background(), c, client, "/site/prod")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "from-ssm", c["SESSION_SECRET"])
	assert.Equal(t, "re_ssm", c["RESEND_API_KEY"])
}

func TestOverlaySSM_EmptyPathIsNoop(t *testing.T) {
	n, err := OverlaySSM(context.Background(), map[string]string{}, &fakeSSM{}, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOverlaySSM_Error(t *testing.T) {
	_, err := OverlaySSM(context.Background(), map[string]string{}, &fakeSSM{err: errors.New("denied")}, "/site")
	assert.ErrorContains(t, err, "denied")
}
