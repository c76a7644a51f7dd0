package packs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/storage"
	"github.com/dmitrijs2005/formdoc/internal/storage/fsstore"
	"github.com/dmitrijs2005/formdoc/internal/storage/sqlitestore"
	"github.com/dmitrijs2005/formdoc/internal/testutil"
	"github.com/dmitrijs2005/formdoc/internal/workspace"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 14, 30, 5, 0, time.UTC)

var dbSeq atomic.Int64

func sqliteAdapter(t *testing.T) *storage.Adapter {
	t.Helper()
	dsn := fmt.Sprintf("file:packs_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), dbSeq.Add(1))
	db, err := sqlitestore.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlitestore.Close(dsn) })
	return storage.NewAdapter(sqlitestore.New(db), nil)
}

func fsAdapter(t *testing.T) *storage.Adapter {
	t.Helper()
	h, err := workspace.Grant(t.TempDir())
	require.NoError(t, err)
	fs, err := fsstore.Open(h, nil)
	require.NoError(t, err)
	return storage.NewAdapter(fs, nil)
}

type adapterFactory func(t *testing.T) *storage.Adapter

var backends = map[string]adapterFactory{
	"sqlite": sqliteAdapter,
	"fs":     fsAdapter,
}

// forEachBackend runs fn once per backend; every adapter fn creates is of
// that backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, newAdapter adapterFactory)) {
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) { fn(t, mk) })
	}
}

func newService(t *testing.T, store Store) *packService {
	t.Helper()
	s := NewPackService(store, nil).(*packService)
	s.now = func() time.Time { return fixedNow }
	return s
}

func seedInvoice(t *testing.T, a *storage.Adapter) *models.Template {
	t.Helper()
	saved, err := a.SaveTemplate(context.Background(), testutil.InvoiceTemplate(t, "Invoice"))
	require.NoError(t, err)
	return saved
}

func TestTemplatePack_ExportShape(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newAdapter adapterFactory) {
		a := newAdapter(t)
		s := newService(t, a)
		tpl := seedInvoice(t, a)

		data, err := s.ExportTemplate(context.Background(), tpl.ID)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, "1.0", m["version"])
		assert.Equal(t, "template", m["type"])
		assert.Equal(t, "2024-05-10T14:30:05.000Z", m["exportedAt"])
		inner := m["template"].(map[string]any)
		assert.Equal(t, tpl.ID, inner["id"])
		assert.Equal(t, tpl.WordFile.Data, inner["wordFile"].(map[string]any)["data"])
	})
}

func exportedInvoice(t *testing.T) []byte {
	t.Helper()
	tpl := testutil.InvoiceTemplate(t, "Invoice")
	tpl.ID = "foreign-id"
	tpl.CreatedAt = "2023-01-01T00:00:00.000Z"
	data, err := Encode(NewTemplatePack(tpl, "2024-01-01T00:00:00.000Z"))
	require.NoError(t, err)
	return data
}

func TestImportTemplate_Strategies(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newAdapter adapterFactory) {
		ctx := context.Background()

		t.Run("overwrite", func(t *testing.T) {
			a := newAdapter(t)
			s := newService(t, a)
			orig := seedInvoice(t, a)

			res, err := s.ImportTemplate(ctx, exportedInvoice(t), StrategyOverwrite)
			require.NoError(t, err)
			assert.Equal(t, OutcomeOverwritten, res.Outcome)

			all, err := a.GetAllTemplates(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "Invoice", all[0].Name)
			assert.Equal(t, orig.ID, all[0].ID)
			assert.Equal(t, orig.CreatedAt, all[0].CreatedAt)
		})

		t.Run("rename", func(t *testing.T) {
			a := newAdapter(t)
			s := newService(t, a)
			orig := seedInvoice(t, a)

			res, err := s.ImportTemplate(ctx, exportedInvoice(t), StrategyRename)
			require.NoError(t, err)
			assert.Equal(t, OutcomeRenamed, res.Outcome)
			assert.Equal(t, "Invoice (imported 20240510-143005)", res.Template.Name)
			assert.NotEqual(t, orig.ID, res.Template.ID)
			assert.NotEqual(t, "foreign-id", res.Template.ID)
			assert.NotEqual(t, "2023-01-01T00:00:00.000Z", res.Template.CreatedAt)

			all, err := a.GetAllTemplates(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})

		t.Run("skip", func(t *testing.T) {
			a := newAdapter(t)
			s := newService(t, a)
			orig := seedInvoice(t, a)

			res, err := s.ImportTemplate(ctx, exportedInvoice(t), StrategySkip)
			require.NoError(t, err)
			assert.Equal(t, OutcomeSkipped, res.Outcome)
			assert.Equal(t, orig.ID, res.Template.ID)

			all, err := a.GetAllTemplates(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})

		t.Run("no match creates fresh", func(t *testing.T) {
			a := newAdapter(t)
			s := newService(t, a)

			res, err := s.ImportTemplate(ctx, exportedInvoice(t), StrategySkip)
			require.NoError(t, err)
			assert.Equal(t, OutcomeCreated, res.Outcome)
			assert.NotEqual(t, "foreign-id", res.Template.ID)
			assert.NotEqual(t, "2023-01-01T00:00:00.000Z", res.Template.CreatedAt)
		})

		t.Run("id match wins over name", func(t *testing.T) {
			a := newAdapter(t)
			s := newService(t, a)
			byName := seedInvoice(t, a)
			other := testutil.InvoiceTemplate(t, "Other")
			other.ID = "foreign-id"
			_, err := a.SaveTemplate(ctx, other)
			require.NoError(t, err)

			res, err := s.ImportTemplate(ctx, exportedInvoice(t), StrategyOverwrite)
			require.NoError(t, err)
			assert.Equal(t, "foreign-id", res.Template.ID)

			kept, err := a.GetTemplate(ctx, byName.ID)
			require.NoError(t, err)
			assert.Equal(t, "Invoice", kept.Name)
		})
	})
}

func TestImportTemplate_RejectsBeforeWriting(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newAdapter adapterFactory) {
		ctx := context.Background()
		a := newAdapter(t)
		s := newService(t, a)

		bad := testutil.InvoiceTemplate(t, "")
		data, err := Encode(NewTemplatePack(bad, "x"))
		require.NoError(t, err)

		_, err = s.ImportTemplate(ctx, data, StrategyRename)
		require.ErrorIs(t, err, common.ErrorValidation)

		_, err = s.ImportTemplate(ctx, []byte("{nope"), StrategyRename)
		require.ErrorIs(t, err, ErrInvalidPack)

		recs, err := Encode(NewRecordsPack(&models.Template{ID: "x"}, nil, "x"))
		require.NoError(t, err)
		_, err = s.ImportTemplate(ctx, recs, StrategyRename)
		require.ErrorIs(t, err, ErrPackTypeMismatch)
		require.ErrorContains(t, err, "expected template pack, got records")

		_, err = s.ImportTemplate(ctx, exportedInvoice(t), Strategy("merge"))
		require.ErrorIs(t, err, ErrUnknownStrategy)

		all, err := a.GetAllTemplates(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestRecordsPack_ExportImport(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newAdapter adapterFactory) {
		ctx := context.Background()
		src := newAdapter(t)
		s := newService(t, src)
		tpl := seedInvoice(t, src)

		r1, err := src.SaveRecord(ctx, &models.Record{TemplateID: tpl.ID, FileName: "a.docx", Data: map[string]any{"customer": "A"}})
		require.NoError(t, err)
		_, err = src.SaveRecord(ctx, &models.Record{TemplateID: tpl.ID, Data: map[string]any{"customer": "B"}})
		require.NoError(t, err)

		data, err := s.ExportRecords(ctx, tpl.ID)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "fileName")

		p, err := DecodeRecordsPack(data)
		require.NoError(t, err)
		assert.Equal(t, 2, p.RecordCount)
		assert.Equal(t, TemplateInfo{ID: tpl.ID, Name: "Invoice"}, p.TemplateInfo)

		only, err := s.ExportRecords(ctx, tpl.ID, r1.ID)
		require.NoError(t, err)
		p, err = DecodeRecordsPack(only)
		require.NoError(t, err)
		require.Len(t, p.Records, 1)
		assert.Equal(t, r1.ID, p.Records[0].ID)

		// Same store: every id already exists.
		res, err := s.ImportRecords(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, &RecordsImportResult{Imported: 0, Skipped: 2, Total: 2, Template: res.Template}, res)

		// Another store: the template is resolved by name.
		dst := newAdapter(t)
		target, err := dst.SaveTemplate(ctx, testutil.InvoiceTemplate(t, "Invoice"))
		require.NoError(t, err)
		res, err = newService(t, dst).ImportRecords(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Imported)
		assert.Equal(t, target.ID, res.Template.ID)

		got, err := dst.GetRecordsByTemplateID(ctx, target.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, r := range got {
			assert.NotEqual(t, r1.ID, r.ID)
			assert.Equal(t, target.ID, r.TemplateID)
		}
	})
}

func TestImportRecords_UnresolvedTemplate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newAdapter adapterFactory) {
		ctx := context.Background()
		a := newAdapter(t)
		data, err := Encode(NewRecordsPack(&models.Template{ID: "gone", Name: "Gone"}, []models.Record{{ID: "r"}}, "x"))
		require.NoError(t, err)

		_, err = newService(t, a).ImportRecords(ctx, data)
		require.ErrorIs(t, err, ErrTemplateNotResolved)
		require.ErrorIs(t, err, common.ErrorNotFound)

		all, err := a.GetAllRecords(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestBackup_IdempotentReimport(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newAdapter adapterFactory) {
		ctx := context.Background()
		src := newAdapter(t)
		tpl := seedInvoice(t, src)
		for i := 0; i < 3; i++ {
			_, err := src.SaveRecord(ctx, &models.Record{TemplateID: tpl.ID, Data: map[string]any{"n": float64(i)}})
			require.NoError(t, err)
		}
		data, err := newService(t, src).ExportBackup(ctx)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, "formdoc", m["appName"])
		assert.Equal(t, "1.0", m["version"])

		dst := newAdapter(t)
		s := newService(t, dst)

		first, err := s.ImportBackup(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, &BackupImportResult{Templates: 1, Records: 3, TemplatesTotal: 1, RecordsTotal: 3}, first)

		second, err := s.ImportBackup(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Templates)
		assert.Equal(t, 0, second.Records)

		tpls, err := dst.GetAllTemplates(ctx)
		require.NoError(t, err)
		assert.Len(t, tpls, 1)
		assert.Equal(t, tpl.ID, tpls[0].ID)
		recs, err := dst.GetAllRecords(ctx)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})
}

func TestImportBackup_RejectsPacks(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newAdapter adapterFactory) {
		_, err := newService(t, newAdapter(t)).ImportBackup(context.Background(), exportedInvoice(t))
		require.ErrorIs(t, err, ErrPackTypeMismatch)
	})
}

func TestBackup_CrossBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	pairs := []struct {
		name     string
		src, dst adapterFactory
	}{
		{"sqlite to fs", sqliteAdapter, fsAdapter},
		{"fs to sqlite", fsAdapter, sqliteAdapter},
	}
	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			src := tc.src(t)
			tpl := seedInvoice(t, src)
			_, err := src.SaveRecord(ctx, &models.Record{
				TemplateID: tpl.ID,
				FileName:   "acme.docx",
				Data:       map[string]any{"customer": "ACME", "total": float64(12.5)},
				Tables:     map[string][]models.Row{"items": {{"desc": "Bolt", "qty": float64(3)}}},
				CreatedAt:  "2024-05-01T09:00:00.000Z",
			})
			require.NoError(t, err)
			_, err = src.SaveRecord(ctx, &models.Record{TemplateID: tpl.ID, Data: map[string]any{"customer": "Globex"}, CreatedAt: "2024-05-02T09:00:00.000Z"})
			require.NoError(t, err)

			data, err := newService(t, src).ExportBackup(ctx)
			require.NoError(t, err)

			dst := tc.dst(t)
			res, err := newService(t, dst).ImportBackup(ctx, data)
			require.NoError(t, err)
			assert.Equal(t, &BackupImportResult{Templates: 1, Records: 2, TemplatesTotal: 1, RecordsTotal: 2}, res)

			wantTpls, err := src.GetAllTemplates(ctx)
			require.NoError(t, err)
			gotTpls, err := dst.GetAllTemplates(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(wantTpls, gotTpls, cmpopts.IgnoreFields(models.Template{}, "UpdatedAt")); diff != "" {
				t.Fatalf("templates differ after restore (-want +got):\n%s", diff)
			}

			wantRecs, err := src.GetAllRecords(ctx)
			require.NoError(t, err)
			gotRecs, err := dst.GetAllRecords(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(wantRecs, gotRecs, cmpopts.IgnoreFields(models.Record{}, "UpdatedAt")); diff != "" {
				t.Fatalf("records differ after restore (-want +got):\n%s", diff)
			}
		})
	}
}

func TestImportBackup_OrphanedRecordsAreNotWritten(t *testing.T) {
	forEachBackend(t, func(t *testing.T, newAdapter adapterFactory) {
		ctx := context.Background()
		a := newAdapter(t)
		s := newService(t, a)
		data := []byte(`{"version":"1.0","timestamp":"2024-05-10T00:00:00.000Z","appName":"formdoc",
			"templates":[],"records":[{"id":"r1","templateId":"t-gone","data":{}}]}`)

		for i := 0; i < 2; i++ {
			res, err := s.ImportBackup(ctx, data)
			require.NoError(t, err)
			assert.Equal(t, &BackupImportResult{RecordsTotal: 1, Orphaned: 1}, res)
		}

		all, err := a.GetAllRecords(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
		_, err = a.GetRecord(ctx, "r1")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})
}
