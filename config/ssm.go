package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// OverlaySSM copies every parameter under prefix into c, keyed by the last
// path element, e.g. /site/prod/SESSION_SECRET sets SESSION_SECRET. Values
// already present in c are replaced.
func OverlaySSM(ctx context.Context, c map[string]string, client ssm.GetParametersByPathAPIClient, prefix string) (int, error) {
	if prefix == "" {
		return 0, nil
	}

	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return loaded, fmt.Errorf("read ssm parameters under %s: %w", prefix, err)
		}
		for _, p := range page.Parameters {
			name := path.Base(strings.TrimRight(aws.ToString(p.Name), "/"))
			if name == "" || name == "." || name == "/" {
				continue
			}
			c[name] = aws.ToString(p.Value)
			loaded++
		}
	}

	log.Info().Str("path", prefix).Int("count", loaded).Msg("loaded settings from SSM")
	return loaded, nil
}
