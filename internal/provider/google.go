package provider

import (
	"context"
	"fmt"
	"os"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/valpere/polyglotter/internal/errs"
)

// Google wraps cloud.google.com/go/translate, kept from the teacher as a
// fast-path plain-text translator: it does not implement the tool-calling
// Builder contract (Google Translate has no tool schema), so it is not
// reachable through Factory; `cmd translate --service google` calls it
// directly for text/plain input where a full LLM round trip is unnecessary
// overhead, the role internal/translator/google.go served in the teacher's
// orchestrator.
type Google struct {
	Credentials string
}

// Translate returns the Advanced/Basic Google Translate result for text.
func (g *Google) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if g.Credentials != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", g.Credentials)
	}

	targetTag, err := language.Parse(targetLang)
	if err != nil {
		return "", errs.New(errs.InvalidInput, fmt.Errorf("invalid target language: %w", err))
	}

	var opts []option.ClientOption
	if g.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(g.Credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", errs.New(errs.ProviderHttp, fmt.Errorf("create google translate client: %w", err))
	}
	defer client.Close()

	var translations []translate.Translation
	if sourceLang == "" || sourceLang == "auto" {
		translations, err = client.Translate(ctx, []string{text}, targetTag, nil)
	} else {
		sourceTag, _ := language.Parse(sourceLang)
		translations, err = client.Translate(ctx, []string{text}, targetTag, &translate.Options{Source: sourceTag})
	}
	if err != nil {
		return "", errs.New(errs.ProviderHttp, fmt.Errorf("google translate: %w", err))
	}
	if len(translations) == 0 {
		return "", errs.New(errs.EmptyOutput, fmt.Errorf("no translation returned"))
	}
	return translations[0].Text, nil
}
