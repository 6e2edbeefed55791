package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"servicearea-service/internal/adapters/sources"
	"servicearea-service/internal/api/dto"
	"servicearea-service/internal/config"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/platform/obs"
	"servicearea-service/internal/ports"
	"servicearea-service/internal/services"
	"strings"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/singleflight"
)

const maxRequestBytes = 32 << 20

// ServiceAreaHandler serves pipeline runs over HTTP. Results, Cache and
// Network are optional.
type ServiceAreaHandler struct {
	Pipeline *services.ServiceAreaPipeline
	Repo     ports.ServiceAreaRepository
	Results  ports.ResultLister
	Cache    ports.ResultCache

	// Used when a request carries no road_network.
	Network  domain.RoadNetwork
	Defaults domain.Params
	InputCRS string

	group singleflight.Group
}

// Collection handles /service-areas.
func (h *ServiceAreaHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Get handles /service-areas/{id}.
func (h *ServiceAreaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "run id is required")
		return
	}

	run, err := h.Repo.GetRun(r.Context(), id)
	if errors.Is(err, domain.ErrRunNotFound) {
		writeError(w, r, http.StatusNotFound, "service area run not found")
		return
	}
	if err != nil {
		log.Printf("get run failed: run_id=%s err=%v", id, err)
		writeError(w, r, http.StatusInternalServerError, "failed to load service areas")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RunResponse{
		RunID:        run.RunID,
		CreatedAt:    run.CreatedAt,
		TierSpecs:    tierSpecResponses(run.TierSpecs),
		ServiceAreas: sources.ServiceAreaCollection(run.Areas),
	})
}

func (h *ServiceAreaHandler) list(w http.ResponseWriter, r *http.Request) {
	if h.Results == nil {
		writeJSON(w, r, http.StatusOK, dto.ListRunsResponse{RunIDs: []string{}})
		return
	}

	ids, err := h.Results.ListResults(r.Context(), services.ResultsGroup)
	if err != nil {
		log.Printf("list runs failed: err=%v", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list service area runs")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, r, http.StatusOK, dto.ListRunsResponse{RunIDs: ids})
}

func (h *ServiceAreaHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.ServiceAreaRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RouteSketch == nil {
		writeError(w, r, http.StatusBadRequest, "route_sketch is required")
		return
	}

	opts, err := h.options(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	crs := strings.ToLower(req.CRS)
	if crs == "" {
		crs = h.InputCRS
	}
	if crs == "" {
		crs = config.CRSProjected
	}
	if crs != config.CRSProjected && crs != config.CRSWGS84 {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("crs must be %s or %s", config.CRSProjected, config.CRSWGS84))
		return
	}

	key, err := requestKey(req, opts, crs)
	if err != nil {
		log.Printf("request key failed: err=%v", err)
		writeError(w, r, http.StatusInternalServerError, "failed to generate service areas")
		return
	}

	// Intermediates are large and only wanted for debugging; skip the cache.
	cacheable := h.Cache != nil && !req.KeepIntermediates
	if cacheable {
		if body, ok, err := h.Cache.Get(r.Context(), key); err != nil {
			log.Printf("result cache get failed: key=%s err=%v", key, err)
		} else if ok {
			writeRawJSON(w, r, http.StatusOK, body)
			return
		}
	}

	// Shared runs outlive any single caller.
	ctx := context.WithoutCancel(r.Context())
	v, err, shared := h.group.Do(key, func() (any, error) {
		return h.run(ctx, req, opts, crs)
	})
	if err != nil {
		if isClientError(err) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("generate service areas failed: key=%s err=%v", key, err)
		writeError(w, r, http.StatusInternalServerError, "failed to generate service areas")
		return
	}
	body := v.([]byte)

	if cacheable && !shared {
		if err := h.Cache.Set(ctx, key, body); err != nil {
			log.Printf("result cache set failed: key=%s err=%v", key, err)
		}
	}
	writeRawJSON(w, r, http.StatusOK, body)
}

func (h *ServiceAreaHandler) run(ctx context.Context, req dto.ServiceAreaRequest, opts services.Options, crs string) (_ []byte, err error) {
	defer obs.Time(ctx, "handler.ServiceAreas")(&err)

	sketch := domain.RouteSketch(sources.FromFeatureCollection(req.RouteSketch))
	network := h.Network
	if req.RoadNetwork != nil {
		network = domain.RoadNetwork(sources.FromFeatureCollection(req.RoadNetwork))
	}

	if crs == config.CRSWGS84 {
		if ll, ok := services.ProjectLonLat(sketch, network); ok {
			sketch, network = ll.Sketch, ll.Network
			opts = ll.Apply(opts)
		}
	}

	res, err := h.Pipeline.GenerateServiceAreas(ctx, sketch, network, opts)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(serviceAreaResponse(res))
	if err != nil {
		return nil, fmt.Errorf("encode service areas: %w", err)
	}
	return body, nil
}

// options merges request overrides into the server defaults.
func (h *ServiceAreaHandler) options(req dto.ServiceAreaRequest) (services.Options, error) {
	p := h.Defaults
	if req.TierCount != nil {
		p.TierCount = *req.TierCount
	}
	if req.MilesPerTier != nil {
		p.MilesPerTier = *req.MilesPerTier
	}
	if req.AvgSpeed != nil {
		p.AvgSpeed = *req.AvgSpeed
	}
	if req.CellSize != nil {
		p.CellSize = *req.CellSize
	}
	if len(req.TierMinimums) > 0 {
		var mins *string
		if err := json.Unmarshal(req.TierMinimums, &mins); err != nil {
			return services.Options{}, errors.New("tier_minimums must be a string or null")
		}
		p.TierMinimums = mins
	}
	if err := p.Validate(); err != nil {
		return services.Options{}, err
	}

	strategy, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		return services.Options{}, err
	}

	return services.Options{
		Params:            p,
		Strategy:          strategy,
		TierIndexBase:     req.TierIndexBase,
		KeepIntermediates: req.KeepIntermediates,
	}, nil
}

func isClientError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidTierCount,
		domain.ErrInvalidMilesPerTier,
		domain.ErrInvalidSpeed,
		domain.ErrInvalidCellSize,
		domain.ErrInvalidStrategy,
		domain.ErrNoRoadNetwork,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// requestKey hashes everything that affects a run's output.
func requestKey(req dto.ServiceAreaRequest, opts services.Options, crs string) (string, error) {
	canonical := struct {
		Params       domain.Params              `json:"params"`
		Strategy     string                     `json:"strategy"`
		Base         int                        `json:"tier_index_base"`
		CRS          string                     `json:"crs"`
		Intermediate bool                       `json:"keep_intermediates"`
		Sketch       *geojson.FeatureCollection `json:"route_sketch"`
		Network      *geojson.FeatureCollection `json:"road_network"`
	}{
		Params:       opts.Params,
		Strategy:     opts.Strategy.String(),
		Base:         opts.TierIndexBase,
		CRS:          crs,
		Intermediate: opts.KeepIntermediates,
		Sketch:       req.RouteSketch,
		Network:      req.RoadNetwork,
	}

	b, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("request key: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
