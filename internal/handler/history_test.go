package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/repository"
)

// fakeCatchStore keeps records in a map and fakes ownership checks the way
// the real repo does.
type fakeCatchStore struct {
	nextID  uint64
	records map[uint64]*model.CatchRecord
}

func newFakeCatchStore() *fakeCatchStore {
	return &fakeCatchStore{nextID: 1, records: map[uint64]*model.CatchRecord{}}
}

func (s *fakeCatchStore) Create(ctx context.Context, rec model.CatchRecord) (uint64, error) {
	rec.ID = s.nextID
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	s.records[rec.ID] = &rec
	s.nextID++
	return rec.ID, nil
}

func (s *fakeCatchStore) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.CatchRecord, error) {
	var mine []model.CatchRecord
	for _, r := range s.records {
		if r.UserID == userID {
			mine = append(mine, *r)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID > mine[j].ID })
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (s *fakeCatchStore) CountByUser(ctx context.Context, userID uint64) (int, error) {
	n := 0
	for _, r := range s.records {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *fakeCatchStore) GetByID(ctx context.Context, id, userID uint64) (model.CatchRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return model.CatchRecord{}, sql.ErrNoRows
	}
	if r.UserID != userID {
		return model.CatchRecord{}, repository.ErrForbidden
	}
	return *r, nil
}

func (s *fakeCatchStore) Update(ctx context.Context, id, userID uint64, fishName, habitat, safety, notes, image *string) error {
	r, ok := s.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	if r.UserID != userID {
		return repository.ErrForbidden
	}
	if fishName != nil {
		r.FishName = *fishName
	}
	if habitat != nil {
		r.Habitat = habitat
	}
	if safety != nil {
		r.ConsumptionSafety = safety
	}
	if notes != nil {
		r.Notes = notes
	}
	if image != nil {
		r.Image = image
	}
	return nil
}

func (s *fakeCatchStore) Delete(ctx context.Context, id, userID uint64) error {
	r, ok := s.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	if r.UserID != userID {
		return repository.ErrForbidden
	}
	delete(s.records, id)
	return nil
}

func (s *fakeCatchStore) Stats(ctx context.Context, userID uint64) (repository.CatchStats, error) {
	var st repository.CatchStats
	byClass := map[string]int{}
	for _, r := range s.records {
		if r.UserID != userID {
			continue
		}
		st.Total++
		st.Recent++
		class := ""
		if r.PredictedClass != nil {
			class = *r.PredictedClass
		}
		byClass[class]++
	}
	for class, n := range byClass {
		st.ByClass = append(st.ByClass, repository.ClassCount{Class: class, Count: n})
	}
	sort.Slice(st.ByClass, func(i, j int) bool { return st.ByClass[i].Count > st.ByClass[j].Count })
	return st, nil
}

type historyEnv struct {
	h     *HistoryHandler
	store *fakeCatchStore
	e     *echo.Echo
}

func newHistoryEnv() *historyEnv {
	store := newFakeCatchStore()
	return &historyEnv{h: NewHistoryHandler(store), store: store, e: echo.New()}
}

func (env *historyEnv) request(method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, userID)
	return c, rec
}

func (env *historyEnv) seedRecord(t *testing.T, userID uint64, fishName, class string) uint64 {
	t.Helper()
	rec := model.CatchRecord{UserID: userID, FishName: fishName}
	if class != "" {
		rec.PredictedClass = &class
	}
	id, err := env.store.Create(context.Background(), rec)
	require.NoError(t, err)
	return id
}

func TestHistoryCreate(t *testing.T) {
	t.Parallel()

	t.Run("saves and echoes the record", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		c, rec := env.request(http.MethodPost, "/", `{"fish_name":"Nila","probability":0.93,"predicted_class":"tilapia"}`, 7)

		require.NoError(t, env.h.Create(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, "Nila", body["fish_name"])
		require.InDelta(t, 0.93, body["probability"], 1e-9)
		require.Len(t, env.store.records, 1)
	})

	t.Run("rejects a missing fish name", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		c, rec := env.request(http.MethodPost, "/", `{"notes":"caught at dawn"}`, 7)

		require.NoError(t, env.h.Create(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Empty(t, env.store.records)
	})

	t.Run("rejects an out of range probability", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		c, rec := env.request(http.MethodPost, "/", `{"fish_name":"Nila","probability":1.5}`, 7)

		require.NoError(t, env.h.Create(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHistoryList(t *testing.T) {
	t.Parallel()

	t.Run("paginates newest first", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		for i := 0; i < 25; i++ {
			env.seedRecord(t, 7, "fish-"+strconv.Itoa(i), "")
		}
		env.seedRecord(t, 8, "other-user", "")

		c, rec := env.request(http.MethodGet, "/?page=2&limit=10", "", 7)
		require.NoError(t, env.h.List(c))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.EqualValues(t, 25, body["total"])
		require.EqualValues(t, 2, body["page"])
		records := body["records"].([]any)
		require.Len(t, records, 10)
		first := records[0].(map[string]any)
		require.Equal(t, "fish-14", first["fish_name"])
	})

	t.Run("caps the page size", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		c, rec := env.request(http.MethodGet, "/?limit=10000", "", 7)
		require.NoError(t, env.h.List(c))

		body := decodeBody(t, rec)
		require.EqualValues(t, maxPageSize, body["limit"])
	})
}

func TestHistoryGet(t *testing.T) {
	t.Parallel()

	t.Run("returns an owned record", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		id := env.seedRecord(t, 7, "Nila", "tilapia")

		c, rec := env.request(http.MethodGet, "/", "", 7)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))

		require.NoError(t, env.h.Get(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Nila", decodeBody(t, rec)["fish_name"])
	})

	t.Run("hides other users' records as not found", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		id := env.seedRecord(t, 8, "Nila", "")

		c, rec := env.request(http.MethodGet, "/", "", 7)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))

		require.NoError(t, env.h.Get(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		c, rec := env.request(http.MethodGet, "/", "", 7)
		c.SetParamNames("id")
		c.SetParamValues("999")

		require.NoError(t, env.h.Get(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHistoryUpdate(t *testing.T) {
	t.Parallel()

	t.Run("patches only the sent fields", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		id := env.seedRecord(t, 7, "Nila", "tilapia")

		c, rec := env.request(http.MethodPatch, "/", `{"notes":"released"}`, 7)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))

		require.NoError(t, env.h.Update(c))
		require.Equal(t, http.StatusOK, rec.Code)

		stored := env.store.records[id]
		require.Equal(t, "Nila", stored.FishName)
		require.NotNil(t, stored.Notes)
		require.Equal(t, "released", *stored.Notes)
	})

	t.Run("rejects an empty patch", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		id := env.seedRecord(t, 7, "Nila", "")

		c, rec := env.request(http.MethodPatch, "/", `{}`, 7)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))

		require.NoError(t, env.h.Update(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cannot touch another user's record", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		id := env.seedRecord(t, 8, "Nila", "")

		c, rec := env.request(http.MethodPatch, "/", `{"notes":"mine now"}`, 7)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))

		require.NoError(t, env.h.Update(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Nil(t, env.store.records[id].Notes)
	})
}

func TestHistoryDelete(t *testing.T) {
	t.Parallel()

	t.Run("removes an owned record", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		id := env.seedRecord(t, 7, "Nila", "")

		c, rec := env.request(http.MethodDelete, "/", "", 7)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))

		require.NoError(t, env.h.Delete(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, env.store.records)
	})

	t.Run("keeps another user's record", func(t *testing.T) {
		t.Parallel()
		env := newHistoryEnv()
		id := env.seedRecord(t, 8, "Nila", "")

		c, rec := env.request(http.MethodDelete, "/", "", 7)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))

		require.NoError(t, env.h.Delete(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Len(t, env.store.records, 1)
	})
}

func TestHistoryStats(t *testing.T) {
	t.Parallel()

	env := newHistoryEnv()
	env.seedRecord(t, 7, "Nila", "tilapia")
	env.seedRecord(t, 7, "Nila besar", "tilapia")
	env.seedRecord(t, 7, "Lele", "catfish")
	env.seedRecord(t, 8, "Lele", "catfish")

	c, rec := env.request(http.MethodGet, "/", "", 7)
	require.NoError(t, env.h.Stats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.EqualValues(t, 3, body["total_records"])
	byClass := body["by_class"].([]any)
	require.Len(t, byClass, 2)
	top := byClass[0].(map[string]any)
	require.Equal(t, "tilapia", top["predicted_class"])
	require.EqualValues(t, 2, top["count"])
}
