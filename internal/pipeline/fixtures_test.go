package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/artist-etl/internal/awards"
	"github.com/sells-group/artist-etl/internal/extract"
	"github.com/sells-group/artist-etl/internal/knowledge"
	"github.com/sells-group/artist-etl/internal/load"
	"github.com/sells-group/artist-etl/internal/model"
)

const testCatalog = "track_id,artists,album_name,track_name,popularity,duration_ms,explicit,danceability,energy,key,loudness,mode,speechiness,acousticness,instrumentalness,liveness,valence,tempo,time_signature,track_genre\n" +
	"t1,Daft Punk,Discovery,One More Time,75,320000,False,0.61,0.69,2,-4.5,1,0.1,0.02,0,0.3,0.5,122,4,electronic\n" +
	"t2,Adele,25,Hello,80,295000,False,0.48,0.45,5,-6.1,0,0.03,0.33,0,0.09,0.29,157.9,4,pop\n" +
	"t3,Obscure Band,Demo,Nothing,20,200000,True,0.5,0.5,1,-8,1,0.05,0.1,0,0.1,0.3,100,4,rock\n"

var ceremonyColumns = []string{"year", "title", "category", "nominee", "artist", "workers", "winner"}

type stubQuerier struct {
	mu    sync.Mutex
	calls int
}

func (s *stubQuerier) Query(_ context.Context, _ string) ([]knowledge.SPARQLBinding, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	v := func(s string) *knowledge.SPARQLValue { return &knowledge.SPARQLValue{Type: "literal", Value: s} }
	return []knowledge.SPARQLBinding{
		{Artist: v("Adele"), Country: v("United Kingdom"), Award: v("Grammy Award for Album of the Year"), Gender: v("female"), AlbumCount: v("4")},
		{Artist: v("Adele"), Country: v("United Kingdom"), Award: v("Brit Award for British Album of the Year"), Gender: v("female"), AlbumCount: v("4")},
		{Artist: v("Daft Punk"), Country: v("France"), Award: v("Grammy Award for Album of the Year"), AlbumCount: v("4")},
	}, nil
}

type fakeSink struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	table     string
	policy    load.Policy
	records   []model.UnifiedRecord
}

func (f *fakeSink) Write(_ context.Context, table string, policy load.Policy, records []model.UnifiedRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return 0, os.ErrDeadlineExceeded
	}
	f.table, f.policy, f.records = table, policy, records
	return int64(len(records)), nil
}

type fakeUploader struct {
	localPath string
	name      string
}

func (f *fakeUploader) Upload(_ context.Context, localPath, name string) (string, error) {
	f.localPath, f.name = localPath, name
	return "exports/" + name, nil
}

type fixture struct {
	stages   *Stages
	mock     pgxmock.PgxPoolIface
	querier  *stubQuerier
	sink     *fakeSink
	uploader *fakeUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	catalogPath := filepath.Join(dir, "spotify_dataset.csv")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o644))
	namesPath := filepath.Join(dir, "artists.csv")
	require.NoError(t, os.WriteFile(namesPath, []byte(strings.Join([]string{"Daft Punk", "Adele"}, "\n")+"\n"), 0o644))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	q := &stubQuerier{}
	f := &fixture{
		mock:     mock,
		querier:  q,
		sink:     &fakeSink{},
		uploader: &fakeUploader{},
	}
	f.stages = &Stages{
		Catalog:  &extract.Catalog{Path: catalogPath},
		Ceremony: &extract.Ceremony{DB: mock},
		Knowledge: &extract.Knowledge{
			NamesPath: namesPath,
			Fetcher:   knowledge.NewFetcher(q, knowledge.Config{}),
		},
		Awards: AwardsConfig{
			Classifier: awards.ClassifierFunc(func(string) string { return "en" }),
		},
		Sink:       f.sink,
		Table:      load.DefaultTable,
		Policy:     load.PolicyReplace,
		Uploader:   f.uploader,
		ObjectName: load.DefaultObjectName,
	}
	return f
}

func (f *fixture) expectCeremony() {
	f.mock.ExpectQuery(`FROM "grammys_raw_data"`).
		WillReturnRows(pgxmock.NewRows(ceremonyColumns).
			AddRow(int64(2001), "44th Annual GRAMMY Awards", "Best Dance Recording", "One More Time", "Daft Punk", "", false).
			AddRow(int64(2016), "59th Annual GRAMMY Awards", "Record Of The Year", "Hello", "Adele", "Greg Kurstin, producer", true))
}
