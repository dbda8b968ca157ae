package search

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovareai/sam-prospector/internal/account"
	"github.com/innovareai/sam-prospector/internal/dialect"
	"github.com/innovareai/sam-prospector/internal/model"
	"github.com/innovareai/sam-prospector/internal/session"
	"github.com/innovareai/sam-prospector/internal/store"
	"github.com/innovareai/sam-prospector/pkg/unipile"
)

// memStore is an in-memory Store for exercising the pipeline end to end.
type memStore struct {
	workspaceName string
	accounts      []model.ConnectedAccount
	outreach      []string
	pending       []string

	inserted []model.Prospect
	batches  []*model.SearchBatch
	approval map[string][]model.Prospect
}

func newMemStore() *memStore {
	return &memStore{workspaceName: "InnovareAI", approval: map[string][]model.Prospect{}}
}

func (m *memStore) WorkspaceName(ctx context.Context, workspaceID string) (string, error) {
	return m.workspaceName, nil
}

func (m *memStore) ConnectedAccounts(ctx context.Context, userID, workspaceID string) ([]model.ConnectedAccount, error) {
	return m.accounts, nil
}

func (m *memStore) InsertProspects(ctx context.Context, workspaceID string, prospects []model.Prospect) (int64, error) {
	m.inserted = append(m.inserted, prospects...)
	return int64(len(prospects)), nil
}

func (m *memStore) OutreachProfileURLs(ctx context.Context, workspaceID string) ([]string, error) {
	return m.outreach, nil
}

func (m *memStore) PendingProfileURLs(ctx context.Context, workspaceID string) ([]string, error) {
	return m.pending, nil
}

func (m *memStore) MaxBatchNumber(ctx context.Context, userID, workspaceID string) (int, error) {
	max := 0
	for _, b := range m.batches {
		if b.BatchNumber > max {
			max = b.BatchNumber
		}
	}
	return max, nil
}

func (m *memStore) CountBatches(ctx context.Context, workspaceID string) (int, error) {
	return len(m.batches), nil
}

func (m *memStore) CreateBatch(ctx context.Context, batch *model.SearchBatch) error {
	m.batches = append(m.batches, batch)
	return nil
}

func (m *memStore) GetBatch(ctx context.Context, batchID string) (*model.SearchBatch, error) {
	for _, b := range m.batches {
		if b.ID == batchID {
			return b, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListBatches(ctx context.Context, filter store.BatchFilter) ([]model.SearchBatch, error) {
	var out []model.SearchBatch
	for _, b := range m.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (m *memStore) InsertApprovalRows(ctx context.Context, batchID string, prospects []model.Prospect) error {
	m.approval[batchID] = append(m.approval[batchID], prospects...)
	return nil
}

func (m *memStore) Ping(ctx context.Context) error    { return nil }
func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

// fakeProvider scripts the Unipile surface. Search pops pages in order
// and records each request's payload.
type fakeProvider struct {
	unipile.Client

	accounts []unipile.AccountInfo
	pages    []*unipile.SearchResponse
	pageErrs []error
	params   map[string][]unipile.Parameter

	payloads    []map[string]any
	lookupCalls int
	searchCalls int
}

func (f *fakeProvider) ListAccounts(ctx context.Context) ([]unipile.AccountInfo, error) {
	return f.accounts, nil
}

func (f *fakeProvider) Search(ctx context.Context, accountID string, payload any, cursor string, limit int) (*unipile.SearchResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	f.payloads = append(f.payloads, body)

	i := f.searchCalls
	f.searchCalls++
	if i < len(f.pageErrs) && f.pageErrs[i] != nil {
		return nil, f.pageErrs[i]
	}
	if i >= len(f.pages) {
		return &unipile.SearchResponse{}, nil
	}
	return f.pages[i], nil
}

func (f *fakeProvider) SearchParameters(ctx context.Context, accountID string, typ unipile.ParameterType, keywords string, limit int) ([]unipile.Parameter, error) {
	f.lookupCalls++
	return f.params[string(typ)+":"+keywords], nil
}

type fakeTrigger struct {
	dispatched []string
}

func (f *fakeTrigger) Dispatch(batchID string) {
	f.dispatched = append(f.dispatched, batchID)
}

func snAccount(id string) unipile.AccountInfo {
	return unipile.AccountInfo{
		ID:   id,
		Type: "LINKEDIN",
		ConnectionParams: unipile.ConnectionParams{
			IM: unipile.IMParams{Premium: true, PremiumFeatures: []string{"sales_navigator"}},
		},
	}
}

func freeAccount(id string) unipile.AccountInfo {
	return unipile.AccountInfo{ID: id, Type: "LINKEDIN"}
}

func snItem(first, last, slug string, degree int) unipile.SearchItem {
	return unipile.SearchItem{
		FirstName:        first,
		LastName:         last,
		PublicIdentifier: slug,
		NetworkDistance:  float64(degree),
		Industry:         "Software Development",
		CurrentPositions: []unipile.CurrentPosition{{Role: "CTO", Company: "Acme"}},
	}
}

func newTestPipeline(st *memStore, provider *fakeProvider, trigger *fakeTrigger) *Pipeline {
	cfg := dialect.DefaultConfig()
	translator := dialect.NewTranslator(dialect.NewLookupResolver(provider, cfg.LookupMatches), cfg)
	resolver := account.NewResolver(st, provider)
	persister := session.NewPersister(st, trigger)

	opts := DefaultOptions()
	opts.PageInterval = time.Millisecond
	return NewPipeline(resolver, translator, provider, st, persister, opts)
}

func request(criteria model.SearchCriteria) model.SearchRequest {
	return model.SearchRequest{UserID: "u1", WorkspaceID: "ws-1", Criteria: criteria}
}

func TestRun_SalesNavigatorEndToEnd(t *testing.T) {
	st := newMemStore()
	st.accounts = []model.ConnectedAccount{
		{ProviderAccountID: "acc-free"},
		{ProviderAccountID: "acc-sn"},
	}
	st.pending = []string{"https://www.linkedin.com/in/known-dupe"}

	provider := &fakeProvider{
		accounts: []unipile.AccountInfo{freeAccount("acc-free"), snAccount("acc-sn")},
		pages: []*unipile.SearchResponse{
			{
				Items: []unipile.SearchItem{
					snItem("Ada", "Lovelace", "ada", 2),
					snItem("Known", "Dupe", "known-dupe", 2),
				},
				Cursor: "c1",
			},
			{
				Items: []unipile.SearchItem{snItem("Alan", "Turing", "alan", 2)},
			},
		},
		params: map[string][]unipile.Parameter{
			"LOCATION:San Francisco": {{ID: "102277331", Title: "San Francisco Bay Area"}},
		},
	}
	trigger := &fakeTrigger{}

	result, err := newTestPipeline(st, provider, trigger).Run(context.Background(), request(model.SearchCriteria{
		Title:            "CTO",
		Location:         "San Francisco",
		Industry:         "Underwater Basket Weaving",
		ConnectionDegree: model.DegreeSecond,
		FetchAll:         true,
	}))
	require.NoError(t, err)

	// Dedup drops the pending profile; two fresh prospects remain.
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 3, result.TotalFound)
	assert.Equal(t, 2, result.PagesFetched)
	assert.False(t, result.EnrichmentTriggered)

	// The higher-capability account drives the dialect.
	require.NotEmpty(t, provider.payloads)
	body := provider.payloads[0]
	assert.Equal(t, "sales_navigator", body["api"])
	assert.Equal(t, map[string]any{"include": []any{"102277331"}}, body["location"])
	assert.Equal(t, "CTO Underwater Basket Weaving", body["keywords"])

	// The unresolvable industry degraded to keywords with a warning.
	require.NotEmpty(t, result.DataQuality.Warnings)
	assert.Contains(t, result.DataQuality.Warnings[0], "industry")

	// Batch and approval rows landed in the store.
	require.NotEmpty(t, result.BatchID)
	require.Len(t, st.batches, 1)
	assert.Equal(t, 1, st.batches[0].BatchNumber)
	assert.Len(t, st.approval[result.BatchID], 2)
	assert.Len(t, st.inserted, 2)
	assert.Empty(t, trigger.dispatched)
}

func TestRun_ClassicSkipsLookupsAndTriggersEnrichment(t *testing.T) {
	st := newMemStore()
	st.accounts = []model.ConnectedAccount{{ProviderAccountID: "acc-free"}}

	provider := &fakeProvider{
		accounts: []unipile.AccountInfo{freeAccount("acc-free")},
		pages: []*unipile.SearchResponse{
			{Items: []unipile.SearchItem{
				{Name: "Ada Lovelace", PublicIdentifier: "ada", Headline: "CTO at Acme", NetworkDistance: float64(2)},
			}},
		},
	}
	trigger := &fakeTrigger{}

	result, err := newTestPipeline(st, provider, trigger).Run(context.Background(), request(model.SearchCriteria{
		Keywords: "fintech",
		Location: "Berlin",
		FetchAll: true,
	}))
	require.NoError(t, err)

	assert.Zero(t, provider.lookupCalls)
	assert.Equal(t, "classic", provider.payloads[0]["api"])
	assert.Equal(t, "fintech Berlin", provider.payloads[0]["keywords"])

	require.Equal(t, 1, result.Count)
	assert.True(t, result.Prospects[0].NeedsEnrichment)
	assert.Equal(t, 1, result.DataQuality.NeedsEnrichmentCount)
	assert.True(t, result.EnrichmentTriggered)
	assert.Equal(t, []string{result.BatchID}, trigger.dispatched)
}

func TestRun_QuotaLimitMidFlightIsPartialSuccess(t *testing.T) {
	st := newMemStore()
	st.accounts = []model.ConnectedAccount{{ProviderAccountID: "acc-sn"}}

	provider := &fakeProvider{
		accounts: []unipile.AccountInfo{snAccount("acc-sn")},
		pages: []*unipile.SearchResponse{
			{Items: []unipile.SearchItem{snItem("Ada", "Lovelace", "ada", 2)}, Cursor: "c1"},
		},
		pageErrs: []error{nil, eris.Wrap(unipile.ErrUsageLimit, "status 429")},
	}

	result, err := newTestPipeline(st, provider, &fakeTrigger{}).Run(context.Background(), request(model.SearchCriteria{
		Keywords: "fintech",
		FetchAll: true,
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, result.PagesFetched)
	require.NotEmpty(t, result.DataQuality.Warnings)
	assert.Contains(t, result.DataQuality.Warnings[0], "usage limit")
	assert.NotEmpty(t, result.BatchID)
}

func TestRun_NoSearchMethodIsAnError(t *testing.T) {
	st := newMemStore()
	st.accounts = []model.ConnectedAccount{{ProviderAccountID: "acc-sn"}}
	provider := &fakeProvider{accounts: []unipile.AccountInfo{snAccount("acc-sn")}}

	_, err := newTestPipeline(st, provider, &fakeTrigger{}).Run(context.Background(), request(model.SearchCriteria{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "criteria require")
}

func TestRun_NoConnectedAccount(t *testing.T) {
	st := newMemStore()
	provider := &fakeProvider{}

	_, err := newTestPipeline(st, provider, &fakeTrigger{}).Run(context.Background(), request(model.SearchCriteria{
		Keywords: "fintech",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrNoAccountConnected)
}

func TestRun_ZeroFreshProspectsCreatesNoBatch(t *testing.T) {
	st := newMemStore()
	st.accounts = []model.ConnectedAccount{{ProviderAccountID: "acc-sn"}}
	st.pending = []string{"https://www.linkedin.com/in/ada"}

	provider := &fakeProvider{
		accounts: []unipile.AccountInfo{snAccount("acc-sn")},
		pages: []*unipile.SearchResponse{
			{Items: []unipile.SearchItem{snItem("Ada", "Lovelace", "ada", 2)}},
		},
	}

	result, err := newTestPipeline(st, provider, &fakeTrigger{}).Run(context.Background(), request(model.SearchCriteria{
		Keywords: "fintech",
		FetchAll: true,
	}))
	require.NoError(t, err)

	assert.Zero(t, result.Count)
	assert.Equal(t, 1, result.TotalFound)
	assert.Empty(t, result.BatchID)
	assert.Empty(t, st.batches)
}
