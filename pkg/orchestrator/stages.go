package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/llm"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/scraper"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/services"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/session"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/vault"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/versioning"
)

// placeholderPattern matches any leftover {...}, <...>, or [...] template
// token the Generation stage must reject (spec.md §4.5.4).
var placeholderPattern = regexp.MustCompile(`[{<\[][^{}<>\[\]]*[}>\]]`)

// CredentialResolver decrypts a login's stored credentials, the seam
// between pkg/store's ciphertext columns and pkg/session's Credentials.
type CredentialResolver struct {
	store *store.Store
	vault *vault.Vault
}

// NewCredentialResolver builds a CredentialResolver.
func NewCredentialResolver(st *store.Store, v *vault.Vault) *CredentialResolver {
	return &CredentialResolver{store: st, vault: v}
}

func (r *CredentialResolver) resolve(ctx context.Context, loginID string) (session.Credentials, error) {
	login, err := r.store.GetPlatformLogin(ctx, loginID)
	if err != nil {
		return session.Credentials{}, err
	}
	username, err := r.vault.DecryptString(login.EncryptedUsername)
	if err != nil {
		return session.Credentials{}, &services.CryptoError{Op: "decrypt login username", Err: err}
	}
	password, err := r.vault.DecryptString(login.EncryptedPassword)
	if err != nil {
		return session.Credentials{}, &services.CryptoError{Op: "decrypt login password", Err: err}
	}
	return session.Credentials{LoginID: loginID, Username: username, Password: password}, nil
}

// DiscoveryExecutor implements Stage 1 (spec.md §4.5.2).
type DiscoveryExecutor struct {
	store        *store.Store
	sessions     *session.Manager
	creds        *CredentialResolver
	orchestrator *Orchestrator
	defaults     *config.Defaults
}

// NewDiscoveryExecutor builds the Discovery stage executor.
func NewDiscoveryExecutor(st *store.Store, sessions *session.Manager, creds *CredentialResolver, o *Orchestrator, defaults *config.Defaults) *DiscoveryExecutor {
	return &DiscoveryExecutor{store: st, sessions: sessions, creds: creds, orchestrator: o, defaults: defaults}
}

// Execute runs one Discovery pass for the process named by task.ProcessID.
func (e *DiscoveryExecutor) Execute(ctx context.Context, task *store.StageTask) error {
	processID := task.ProcessID

	// Step 1: read the config snapshot in a short transaction-free read —
	// no network I/O happens until this function returns from store calls.
	proc, err := e.store.GetMonitoringProcess(ctx, processID)
	if err != nil {
		return err
	}
	loginIDs, err := e.store.ListActiveProcessLoginIDs(ctx, processID)
	if err != nil {
		return err
	}
	promptIDs, err := e.store.ListActiveProcessPromptIDs(ctx, processID)
	if err != nil {
		return err
	}

	pageLimit := e.defaults.DiscoveryPageLimit
	if pageLimit <= 0 {
		pageLimit = 20
	}

	type discovered struct {
		summary scraper.ArticleSummary
		loginID string
	}
	var summaries []discovered
	errorsEncountered := 0

	for _, loginID := range loginIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		creds, err := e.creds.resolve(ctx, loginID)
		if err != nil {
			slog.Warn("discovery: skipping login, credential resolve failed", "login_id", loginID, "error", err)
			errorsEncountered++
			continue
		}

		sess, err := e.sessions.GetOrCreate(ctx, creds)
		if err != nil {
			slog.Warn("discovery: skipping login, session unavailable", "login_id", loginID, "error", err)
			errorsEncountered++
			continue
		}

		tabID := ""
		if proc.TabFilter != nil {
			tabID = *proc.TabFilter
		} else {
			tabs, err := sess.ListTabs(ctx)
			if err != nil || len(tabs) == 0 {
				slog.Warn("discovery: no tabs available for login", "login_id", loginID, "error", err)
				errorsEncountered++
				continue
			}
			tabID = tabs[0].ID
		}

		found := 0
		for pageNum := 1; pageNum <= pageLimit && found < pageLimit; pageNum++ {
			page, err := sess.ListArticles(ctx, tabID, pageNum)
			if err != nil {
				slog.Warn("discovery: list_articles failed", "login_id", loginID, "page", pageNum, "error", err)
				errorsEncountered++
				break
			}
			if len(page) == 0 {
				break
			}

			for _, a := range page {
				if found >= pageLimit {
					break
				}
				if proc.SearchFilter != nil && *proc.SearchFilter != "" &&
					!strings.Contains(strings.ToLower(a.Title), strings.ToLower(*proc.SearchFilter)) {
					continue
				}
				summaries = append(summaries, discovered{summary: a, loginID: loginID})
				found++
			}
		}
	}

	// Step 3: cross product (article, login) pairs x prompts. Dedup against
	// existing rows is handled by the unique index BatchDiscoverArticles
	// inserts against.
	var batch []*store.AIComment
	for _, d := range summaries {
		a := d.summary
		for _, promptID := range promptIDs {
			loginIDCopy := d.loginID
			batch = append(batch, &store.AIComment{
				MymomentArticleID:   a.PlatformArticleID,
				UserID:              proc.UserID,
				LoginID:             &loginIDCopy,
				MonitoringProcessID: processID,
				PromptTemplateID:    promptID,
				LLMProviderConfigID: proc.LLMProviderConfigID,
				ArticleTitle:        a.Title,
				ArticleAuthor:       a.AuthorDisplayName,
				ArticleURL:          a.PlatformArticleID,
				ArticlePublishedAt:  &a.PublishedAt,
			})
		}
	}

	var insertedCount int
	if len(batch) > 0 {
		inserted, err := e.store.BatchDiscoverArticles(ctx, batch)
		if err != nil {
			return fmt.Errorf("batch-inserting discovered articles: %w", err)
		}
		insertedCount = len(inserted)
	}

	if err := e.store.IncrementStageCounters(ctx, processID, "articles_discovered", insertedCount, "errors_encountered_in_discovery", errorsEncountered); err != nil {
		return err
	}

	return e.orchestrator.EnqueueNextStage(ctx, processID, config.StageDiscovery)
}

// PreparationExecutor implements Stage 2 (spec.md §4.5.3).
type PreparationExecutor struct {
	store        *store.Store
	sessions     *session.Manager
	creds        *CredentialResolver
	versioner    *versioning.Versioner
	orchestrator *Orchestrator
}

// NewPreparationExecutor builds the Preparation stage executor.
func NewPreparationExecutor(st *store.Store, sessions *session.Manager, creds *CredentialResolver, v *versioning.Versioner, o *Orchestrator) *PreparationExecutor {
	return &PreparationExecutor{store: st, sessions: sessions, creds: creds, versioner: v, orchestrator: o}
}

// Execute fetches the full body of every discovered row for the process,
// coalescing repeated article ids within the batch to one fetch each.
func (e *PreparationExecutor) Execute(ctx context.Context, task *store.StageTask) error {
	processID := task.ProcessID

	rows, err := e.store.ListAICommentsByStatus(ctx, processID, "discovered", 0)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return e.orchestrator.EnqueueNextStage(ctx, processID, config.StagePreparation)
	}

	type fetched struct {
		article *scraper.Article
		err     error
	}
	cache := make(map[string]fetched)
	errorsEncountered := 0
	prepared := 0

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		f, ok := cache[row.MymomentArticleID]
		if !ok {
			if row.LoginID == nil {
				f = fetched{err: fmt.Errorf("comment %s has no login assigned", row.ID)}
			} else {
				creds, err := e.creds.resolve(ctx, *row.LoginID)
				if err != nil {
					f = fetched{err: err}
				} else if sess, err := e.sessions.GetOrCreate(ctx, creds); err != nil {
					f = fetched{err: err}
				} else if art, err := sess.FetchArticle(ctx, row.MymomentArticleID); err != nil {
					f = fetched{err: err}
				} else {
					f = fetched{article: art}
				}
			}
			cache[row.MymomentArticleID] = f
		}

		if f.err != nil {
			if err := e.store.MarkFailed(ctx, row.ID, processID, "discovered", f.err.Error()); err != nil {
				return err
			}
			errorsEncountered++
			continue
		}

		if err := e.store.MarkPrepared(ctx, row.ID, processID, f.article.TextContent, f.article.HTMLContent,
			f.article.PublishedAt, f.article.EditedAt, time.Now()); err != nil {
			return err
		}
		prepared++

		if err := e.versionIfTracked(ctx, row, f.article); err != nil {
			slog.Warn("article versioning failed", "comment_id", row.ID, "error", err)
		}
	}

	if err := e.store.IncrementStageCounters(ctx, processID, "articles_prepared", prepared, "errors_encountered_in_preparation", errorsEncountered); err != nil {
		return err
	}

	return e.orchestrator.EnqueueNextStage(ctx, processID, config.StagePreparation)
}

// versionIfTracked calls C7's create_version for a freshly-fetched article
// when its author is one of the process owner's tracked students. Versioning
// is best-effort: a failure here never fails Preparation, since the article
// has already been prepared for Generation and posting must still proceed.
func (e *PreparationExecutor) versionIfTracked(ctx context.Context, row *store.AIComment, article *scraper.Article) error {
	student, err := e.store.GetTrackedStudentByUsername(ctx, row.UserID, row.ArticleAuthor)
	if err != nil {
		if services.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	_, err = e.versioner.CreateVersion(ctx, student.ID, versioning.ArticleSnapshot{
		ArticleID: row.MymomentArticleID,
		Title:     row.ArticleTitle,
		Content:   article.TextContent,
		RawHTML:   article.HTMLContent,
	}, student.ContentChangesOnly)
	return err
}

// llmKeyResolver decrypts a provider configuration's stored API key.
type llmKeyResolver struct {
	store *store.Store
	vault *vault.Vault
}

func (r *llmKeyResolver) toCall(cfg *store.LLMProviderConfiguration) (llm.ProviderCall, error) {
	key, err := r.vault.DecryptString(cfg.EncryptedAPIKey)
	if err != nil {
		return llm.ProviderCall{}, &services.CryptoError{Op: "decrypt llm provider api key", Err: err}
	}
	return llm.ProviderCall{Type: config.LLMProviderType(cfg.ProviderName), APIKey: key, Model: cfg.ModelName}, nil
}

// GenerationExecutor implements Stage 3 (spec.md §4.5.4).
type GenerationExecutor struct {
	store        *store.Store
	gateway      *llm.Gateway
	keys         *llmKeyResolver
	orchestrator *Orchestrator
	defaults     *config.Defaults
}

// NewGenerationExecutor builds the Generation stage executor.
func NewGenerationExecutor(st *store.Store, gw *llm.Gateway, v *vault.Vault, o *Orchestrator, defaults *config.Defaults) *GenerationExecutor {
	return &GenerationExecutor{store: st, gateway: gw, keys: &llmKeyResolver{store: st, vault: v}, orchestrator: o, defaults: defaults}
}

// Execute generates an AI comment for every prepared row of the process.
func (e *GenerationExecutor) Execute(ctx context.Context, task *store.StageTask) error {
	processID := task.ProcessID

	proc, err := e.store.GetMonitoringProcess(ctx, processID)
	if err != nil {
		return err
	}

	rows, err := e.store.ListAICommentsByStatus(ctx, processID, "prepared", 0)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return e.orchestrator.EnqueueNextStage(ctx, processID, config.StageGeneration)
	}

	preferred, err := e.store.GetLLMProviderConfiguration(ctx, proc.LLMProviderConfigID)
	if err != nil {
		return err
	}

	chain := []*store.LLMProviderConfiguration{preferred}
	if proc.FallbackToNextProvider {
		others, err := e.store.ListActiveLLMProviderConfigurationsForUser(ctx, proc.UserID)
		if err != nil {
			return err
		}
		for _, c := range others {
			if c.ID != preferred.ID {
				chain = append(chain, c)
			}
		}
	}

	providerCalls := make([]llm.ProviderCall, 0, len(chain))
	for _, c := range chain {
		call, err := e.keys.toCall(c)
		if err != nil {
			slog.Warn("generation: skipping provider, key decrypt failed", "provider_config_id", c.ID, "error", err)
			continue
		}
		providerCalls = append(providerCalls, call)
	}
	if len(providerCalls) == 0 {
		return fmt.Errorf("generation: no usable llm provider configurations for user %s", proc.UserID)
	}

	generated := 0
	errorsEncountered := 0

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		prompt, err := e.store.GetPromptTemplate(ctx, row.PromptTemplateID)
		if err != nil {
			e.fail(ctx, row.ID, processID, err, &errorsEncountered)
			continue
		}

		platformUsername, err := e.platformUsername(ctx, row.LoginID)
		if err != nil {
			slog.Warn("generation: platform_username placeholder unavailable", "comment_id", row.ID, "error", err)
		}

		userPrompt := substitutePlaceholders(prompt.UserPromptTemplate, row, platformUsername)

		start := time.Now()
		result, err := e.gateway.Generate(ctx, providerCalls, prompt.SystemPrompt, userPrompt)
		elapsedMs := int(time.Since(start).Milliseconds())
		if err != nil {
			e.fail(ctx, row.ID, processID, err, &errorsEncountered)
			continue
		}

		comment, err := e.normalizeComment(result.Comment.Comment)
		if err != nil {
			e.fail(ctx, row.ID, processID, err, &errorsEncountered)
			continue
		}

		if err := e.store.MarkGenerated(ctx, row.ID, processID, comment, "", string(result.Provider), nil, &elapsedMs); err != nil {
			return err
		}
		generated++
	}

	if err := e.store.IncrementStageCounters(ctx, processID, "comments_generated", generated, "errors_encountered_in_generation", errorsEncountered); err != nil {
		return err
	}

	return e.orchestrator.EnqueueNextStage(ctx, processID, config.StageGeneration)
}

func (e *GenerationExecutor) fail(ctx context.Context, commentID, processID string, cause error, counter *int) {
	if err := e.store.MarkFailed(ctx, commentID, processID, "prepared", cause.Error()); err != nil {
		slog.Error("generation: failed to record comment failure", "comment_id", commentID, "error", err)
	}
	*counter++
}

// platformUsername resolves the {platform_username} placeholder value for
// a comment row: the decrypted username of the login that discovered it.
// Returns "" (with an error the caller logs but doesn't fail the row on)
// when the comment has no login assigned or the login can't be read.
func (e *GenerationExecutor) platformUsername(ctx context.Context, loginID *string) (string, error) {
	if loginID == nil {
		return "", nil
	}
	login, err := e.store.GetPlatformLogin(ctx, *loginID)
	if err != nil {
		return "", err
	}
	return e.keys.vault.DecryptString(login.EncryptedUsername)
}

// normalizeComment enforces the disclosure prefix, length bounds, and
// placeholder-leftover rejection (spec.md §4.5.4).
func (e *GenerationExecutor) normalizeComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	prefix := e.defaults.AICommentPrefix

	if !strings.HasPrefix(text, prefix) {
		text = prefix + " " + text
	}

	body := strings.TrimSpace(strings.TrimPrefix(text, prefix))
	if len(body) < e.defaults.MinCommentLength || len(body) > e.defaults.MaxCommentLength {
		return "", fmt.Errorf("generated comment length %d outside [%d,%d]", len(body), e.defaults.MinCommentLength, e.defaults.MaxCommentLength)
	}
	if placeholderPattern.MatchString(body) {
		return "", fmt.Errorf("generated comment contains unresolved template placeholders")
	}

	return text, nil
}

// substitutePlaceholders resolves the seven recognized `{name}` placeholders
// (spec.md §3's PromptTemplate field description) against an article
// snapshot. Unknown placeholders and any brace content not in the
// recognized set pass through untouched; normalizeComment's
// placeholder-leftover check catches those.
func substitutePlaceholders(template string, row *store.AIComment, platformUsername string) string {
	content := ""
	if row.ArticleContent != nil {
		content = *row.ArticleContent
	}
	category := ""
	if row.ArticleCategory != nil {
		category = strconv.Itoa(*row.ArticleCategory)
	}
	publishedAt := ""
	if row.ArticlePublishedAt != nil {
		publishedAt = row.ArticlePublishedAt.Format(time.RFC3339)
	}

	replacer := strings.NewReplacer(
		"{article_title}", row.ArticleTitle,
		"{article_content}", content,
		"{article_author}", row.ArticleAuthor,
		"{article_category}", category,
		"{article_published_at}", publishedAt,
		"{article_url}", row.ArticleURL,
		"{platform_username}", platformUsername,
	)
	return replacer.Replace(template)
}

// PostingExecutor implements Stage 4 (spec.md §4.5.5).
type PostingExecutor struct {
	store        *store.Store
	sessions     *session.Manager
	creds        *CredentialResolver
	orchestrator *Orchestrator
}

// NewPostingExecutor builds the Posting stage executor.
func NewPostingExecutor(st *store.Store, sessions *session.Manager, creds *CredentialResolver, o *Orchestrator) *PostingExecutor {
	return &PostingExecutor{store: st, sessions: sessions, creds: creds, orchestrator: o}
}

// Execute posts every generated row of the process, unless the process was
// configured generate_only=true, in which case this stage is a no-op that
// still closes out the pipeline.
func (e *PostingExecutor) Execute(ctx context.Context, task *store.StageTask) error {
	processID := task.ProcessID

	proc, err := e.store.GetMonitoringProcess(ctx, processID)
	if err != nil {
		return err
	}
	if proc.GenerateOnly {
		return e.orchestrator.EnqueueNextStage(ctx, processID, config.StagePosting)
	}

	rows, err := e.store.ListAICommentsByStatus(ctx, processID, "generated", 0)
	if err != nil {
		return err
	}

	posted := 0
	errorsEncountered := 0

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if row.LoginID == nil {
			e.markFailed(ctx, row.ID, processID, "no login assigned to comment", &errorsEncountered)
			continue
		}

		already, err := e.store.AlreadyPostedForArticle(ctx, row.MymomentArticleID, processID, *row.LoginID)
		if err != nil {
			return err
		}
		if already {
			e.markFailed(ctx, row.ID, processID, "duplicate post suppressed", &errorsEncountered)
			continue
		}

		creds, err := e.creds.resolve(ctx, *row.LoginID)
		if err != nil {
			e.markFailed(ctx, row.ID, processID, err.Error(), &errorsEncountered)
			continue
		}
		sess, err := e.sessions.GetOrCreate(ctx, creds)
		if err != nil {
			e.markFailed(ctx, row.ID, processID, err.Error(), &errorsEncountered)
			continue
		}

		content := ""
		if row.CommentContent != nil {
			content = *row.CommentContent
		}
		platformCommentID, err := sess.PostComment(ctx, row.MymomentArticleID, content)
		if err != nil {
			e.markFailed(ctx, row.ID, processID, err.Error(), &errorsEncountered)
			continue
		}

		if err := e.store.MarkPosted(ctx, row.ID, processID, *row.LoginID, platformCommentID); err != nil {
			return err
		}
		posted++
	}

	if err := e.store.IncrementStageCounters(ctx, processID, "comments_posted", posted, "errors_encountered_in_posting", errorsEncountered); err != nil {
		return err
	}

	return e.orchestrator.EnqueueNextStage(ctx, processID, config.StagePosting)
}

func (e *PostingExecutor) markFailed(ctx context.Context, commentID, processID, msg string, counter *int) {
	if err := e.store.MarkFailed(ctx, commentID, processID, "generated", msg); err != nil {
		slog.Error("posting: failed to record comment failure", "comment_id", commentID, "error", err)
	}
	*counter++
}
