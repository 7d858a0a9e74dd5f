package backend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/pager"
	"github.com/relabs-tech/modelrest/core/query"
	"github.com/relabs-tech/modelrest/core/repository"
	"golang.org/x/sync/errgroup"
)

// factory creates the route handlers of a backend
type factory struct {
	*Backend
}

// modelHandlers are the request handlers of one model
type modelHandlers struct {
	b *Backend
	d *model.Descriptor
}

// ModelHandlers implements HandlerFactory
func (f factory) ModelHandlers(d *model.Descriptor) HandlerSet {
	h := &modelHandlers{b: f.Backend, d: d}
	f.log.WithField("model", d.Name).Debugln("create handlers")
	return HandlerSet{
		Schema:     h.exposed(h.schema),
		Items:      h.exposed(h.items),
		Fetch:      h.exposed(h.withUUID(h.fetch)),
		Check:      h.exposed(h.withUUID(h.check)),
		Exists:     h.exposed(h.exists),
		Create:     h.exposed(h.create),
		Modify:     h.exposed(h.withUUID(h.modify)),
		Replace:    h.exposed(h.withUUID(h.replace)),
		Remove:     h.exposed(h.withUUID(h.remove)),
		NotAllowed: h.notAllowed,
	}
}

// exposed rejects requests the model may not be exposed to
func (h *modelHandlers) exposed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.b.policy.MayBeExposed(r, h.d) {
			writeError(w, r, http.StatusForbidden, "access forbidden")
			return
		}
		next(w, r)
	}
}

// withUUID validates the uuid route variable before the repository is touched
func (h *modelHandlers) withUUID(next func(w http.ResponseWriter, r *http.Request, id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUID(r)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid UUID")
			return
		}
		next(w, r, id)
	}
}

func (h *modelHandlers) collection(w http.ResponseWriter, r *http.Request) (repository.Collection, bool) {
	col, err := h.b.repository.Collection(r.Context(), h.d)
	if err != nil {
		logger.ForModel(r.Context(), h.d.Name).WithError(err).Errorln("cannot access collection")
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return col, true
}

// fail responds to a failed repository call
func (h *modelHandlers) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		logger.ForModel(r.Context(), h.d.Name).WithError(err).Errorf("%s failed", action)
	}
	writeError(w, r, status, err.Error())
}

func (h *modelHandlers) schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, publicSchema(h.d))
}

func (h *modelHandlers) notAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func (h *modelHandlers) exists(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *modelHandlers) check(w http.ResponseWriter, r *http.Request, id string) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	exists, err := col.Exists(r.Context(), id)
	if err != nil {
		logger.ForModel(r.Context(), h.d.Name).WithError(err).Errorln("checking failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *modelHandlers) fetch(w http.ResponseWriter, r *http.Request, id string) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	rec, err := col.Load(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "selected item not found")
		return
	}
	if err != nil {
		h.fail(w, r, "fetching", err)
		return
	}
	if err := h.b.intercept(r.Context(), h.d, core.OperationRead, queryParameters(r), rec); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, h.d.Serialize(rec))
}

// items lists or searches records, depending on the presence of q
func (h *modelHandlers) items(w http.ResponseWriter, r *http.Request) {
	if values := r.Header.Values("x-list-as-array"); len(values) > 0 && pager.Truthy(values[0]) {
		writeError(w, r, http.StatusBadRequest, "fetching items as array is deprecated for security reasons")
		return
	}
	urlQuery := r.URL.Query()
	spec, err := pager.FromQuery(urlQuery)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	withCount := false
	if _, ok := urlQuery["count"]; ok {
		withCount = pager.Truthy(urlQuery.Get("count"))
	}
	if values := r.Header.Values("x-count"); len(values) > 0 && pager.Truthy(values[0]) {
		withCount = true
	}
	opts := repository.FindOptions{LoadRecords: true}
	if _, ok := urlQuery["loadRecords"]; ok {
		opts.LoadRecords = pager.Truthy(urlQuery.Get("loadRecords"))
	}
	meta := &pager.Meta{}
	if withCount {
		opts.Meta = meta
	}

	var predicate *query.Predicate
	if _, ok := urlQuery["q"]; ok {
		text := urlQuery.Get("q")
		if text == "" {
			writeError(w, r, http.StatusBadRequest, "missing query")
			return
		}
		p, ok := query.Parse(text)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid query, e.g. use ?q=name:operation:value")
			return
		}
		if err := p.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		predicate = &p
	}

	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	var records []*model.Record
	if predicate != nil {
		records, err = col.Find(r.Context(), *predicate, spec, opts)
	} else {
		records, err = col.List(r.Context(), spec, opts)
	}
	if err != nil {
		if predicate != nil {
			h.fail(w, r, "querying", err)
		} else {
			h.fail(w, r, "listing", err)
		}
		return
	}

	items := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		if opts.LoadRecords {
			items = append(items, h.d.Serialize(rec))
		} else {
			items = append(items, map[string]interface{}{"uuid": rec.UUID})
		}
	}
	response := map[string]interface{}{"items": items}
	if withCount {
		w.Header().Set("X-Count", strconv.Itoa(meta.Count))
		response["count"] = meta.Count
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *modelHandlers) create(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if _, ok := fields["uuid"]; ok {
		writeError(w, r, http.StatusBadRequest, "new entry can not be created with uuid")
		return
	}
	rec := model.NewRecord("")
	if err := h.d.AssignAll(rec, fields); err != nil {
		writeFailure(w, r, err)
		return
	}
	h.d.ApplyDefaults(rec)
	if err := h.b.intercept(r.Context(), h.d, core.OperationCreate, queryParameters(r), rec); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	saved, err := col.Save(r.Context(), rec, repository.SaveOptions{})
	if err != nil {
		h.fail(w, r, "creating", err)
		return
	}
	h.b.notify(r.Context(), h.d, core.OperationCreate, saved.UUID, h.d.Serialize(saved))
	writeJSON(w, r, http.StatusCreated, map[string]string{"uuid": saved.UUID})
}

func (h *modelHandlers) modify(w http.ResponseWriter, r *http.Request, id string) {
	fields, err := readFields(w, r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	exists, err := col.Exists(r.Context(), id)
	if err != nil {
		h.fail(w, r, "checking", err)
		return
	}
	if !exists {
		writeError(w, r, http.StatusNotFound, "selected item not found")
		return
	}
	rec, err := col.Load(r.Context(), id)
	if err != nil {
		h.fail(w, r, "loading", err)
		return
	}
	if err := h.d.AssignAll(rec, fields); err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := h.b.intercept(r.Context(), h.d, core.OperationUpdate, queryParameters(r), rec); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := col.Save(r.Context(), rec, repository.SaveOptions{})
	if err != nil {
		h.fail(w, r, "updating", err)
		return
	}
	body := h.d.Serialize(saved)
	h.b.notify(r.Context(), h.d, core.OperationUpdate, saved.UUID, body)
	writeJSON(w, r, http.StatusOK, body)
}

// replace creates or fully overwrites the record. Declared properties missing in the
// body are cleared, settable computed properties are always assigned.
func (h *modelHandlers) replace(w http.ResponseWriter, r *http.Request, id string) {
	fields, err := readFields(w, r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	col, ok := h.collection(w, r)
	if !ok {
		return
	}

	var (
		exists bool
		loaded *model.Record
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		exists, err = col.Exists(ctx, id)
		return
	})
	g.Go(func() error {
		rec, err := col.Load(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		loaded = rec
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, "loading", err)
		return
	}

	rec := loaded
	if rec == nil {
		rec = model.NewRecord(id)
	}
	rec.UUID = id
	h.d.Reset(rec)
	for _, p := range h.d.Properties {
		if value, ok := fields[p.Name]; ok && value != nil {
			if _, err := h.d.Assign(rec, p.Name, value); err != nil {
				writeFailure(w, r, err)
				return
			}
		}
	}
	for _, c := range h.d.Computed {
		if !c.Settable() {
			continue
		}
		if _, err := h.d.Assign(rec, c.Name, fields[c.Name]); err != nil {
			writeFailure(w, r, err)
			return
		}
	}
	if err := h.b.intercept(r.Context(), h.d, core.OperationReplace, queryParameters(r), rec); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := col.Save(r.Context(), rec, repository.SaveOptions{IgnoreUnloaded: !exists})
	if err != nil {
		h.fail(w, r, "replacing", err)
		return
	}
	h.b.notify(r.Context(), h.d, core.OperationReplace, saved.UUID, h.d.Serialize(saved))
	writeJSON(w, r, http.StatusOK, map[string]string{"uuid": saved.UUID})
}

func (h *modelHandlers) remove(w http.ResponseWriter, r *http.Request, id string) {
	col, ok := h.collection(w, r)
	if !ok {
		return
	}
	exists, err := col.Exists(r.Context(), id)
	if err != nil {
		h.fail(w, r, "checking", err)
		return
	}
	if !exists {
		writeError(w, r, http.StatusNotFound, "no such entry")
		return
	}
	if h.b.hasInterceptor(h.d, core.OperationDelete) {
		rec, err := col.Load(r.Context(), id)
		if err != nil {
			h.fail(w, r, "loading", err)
			return
		}
		if err := h.b.intercept(r.Context(), h.d, core.OperationDelete, queryParameters(r), rec); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	err = col.Remove(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "no such entry")
		return
	}
	if err != nil {
		h.fail(w, r, "removing", err)
		return
	}
	h.b.notify(r.Context(), h.d, core.OperationDelete, id, map[string]string{"uuid": id})
	writeJSON(w, r, http.StatusOK, map[string]string{"uuid": id, "status": "OK", "action": "remove"})
}
