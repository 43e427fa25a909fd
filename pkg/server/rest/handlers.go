package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/kv"
	"lintang/campusnav/pkg/server"
	"lintang/campusnav/pkg/server/rest/service"
	"lintang/campusnav/pkg/util"
)

type NavigationService interface {
	ShortestPath(ctx context.Context, src, dst service.Location, mode datastructure.TravelMode, algorithm string) (service.Route, error)
	Alternatives(ctx context.Context, src, dst service.Location, mode datastructure.TravelMode, k int) ([]service.Route, error)
	MultiStop(ctx context.Context, start service.Location, stops []service.Location, mode datastructure.TravelMode, keepOrder bool) (service.Tour, error)
	NearbyPOIs(ctx context.Context, lat, lon, radiusKm float64) ([]datastructure.PointOfInterest, error)
	SetRushHour(ctx context.Context, active bool) bool
	RushHour(ctx context.Context) bool
	History(ctx context.Context) ([]kv.TripRecord, error)
}

type NavigationHandler struct {
	svc          NavigationService
	promeMetrics *metrics
	defaultK     int
}

func NavigatorRouter(r *chi.Mux, svc NavigationService, m *metrics, defaultK int) {
	if defaultK <= 0 {
		defaultK = 3
	}
	handler := &NavigationHandler{svc, m, defaultK}

	r.Group(func(r chi.Router) {
		r.Route("/api/navigations", func(r chi.Router) {
			r.Post("/shortest-path", handler.shortestPath)
			r.Post("/alternatives", handler.alternatives)
			r.Post("/multi-stop", handler.multiStop)
		})
		r.Get("/api/pois/nearby", handler.nearbyPOIs)
		r.Route("/api/traffic", func(r chi.Router) {
			r.Get("/rush-hour", handler.rushHour)
			r.Put("/rush-hour", handler.setRushHour)
		})
		r.Get("/api/history", handler.history)
	})
}

// validate pakai validator + pesan error bahasa inggris. false kalau request tidak valid
// dan response error sudah ditulis.
func validate(w http.ResponseWriter, r *http.Request, data interface{}) bool {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return false
	}
	return true
}

func parseMode(s string) (datastructure.TravelMode, error) {
	mode, ok := datastructure.ParseTravelMode(s)
	if !ok {
		return "", fmt.Errorf("unknown travel mode %q, use car or walk", s)
	}
	return mode, nil
}

// ShortestPathRequest model info
//
//	@Description	request body untuk shortest path query antara 2 tempat
type ShortestPathRequest struct {
	SrcLat    float64 `json:"src_lat" validate:"required,lt=90,gt=-90"`
	SrcLon    float64 `json:"src_lon" validate:"required,lt=180,gt=-180"`
	SrcName   string  `json:"src_name"`
	DstLat    float64 `json:"dst_lat" validate:"required,lt=90,gt=-90"`
	DstLon    float64 `json:"dst_lon" validate:"required,lt=180,gt=-180"`
	DstName   string  `json:"dst_name"`
	Mode      string  `json:"mode" validate:"required"`
	Algorithm string  `json:"algorithm" validate:"omitempty,oneof=a_star bfs"`

	travelMode datastructure.TravelMode
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	if s.SrcLat == 0 || s.SrcLon == 0 || s.DstLat == 0 || s.DstLon == 0 {
		return errors.New("invalid request")
	}
	mode, err := parseMode(s.Mode)
	if err != nil {
		return err
	}
	s.travelMode = mode
	return nil
}

func (s *ShortestPathRequest) locations() (service.Location, service.Location) {
	return service.Location{Lat: s.SrcLat, Lon: s.SrcLon, Name: s.SrcName},
		service.Location{Lat: s.DstLat, Lon: s.DstLon, Name: s.DstName}
}

// AlternativesRequest model info
//
//	@Description	request body untuk k alternative route antara 2 tempat
type AlternativesRequest struct {
	ShortestPathRequest
	K int `json:"k" validate:"omitempty,gte=1,lte=10"`
}

func (s *AlternativesRequest) Bind(r *http.Request) error {
	return s.ShortestPathRequest.Bind(r)
}

// Coord model info
//
//	@Description	model untuk koordinat
type Coord struct {
	Lat  float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lon  float64 `json:"lon" validate:"required,lt=180,gt=-180"`
	Name string  `json:"name,omitempty"`
}

func (c Coord) location() service.Location {
	return service.Location{Lat: c.Lat, Lon: c.Lon, Name: c.Name}
}

// MultiStopRequest model info
//
//	@Description	request body untuk rute yang melewati beberapa tempat
type MultiStopRequest struct {
	Start     Coord   `json:"start" validate:"required"`
	Stops     []Coord `json:"stops" validate:"required,min=1,max=12,dive"`
	Mode      string  `json:"mode" validate:"required"`
	KeepOrder bool    `json:"keep_order"`

	travelMode datastructure.TravelMode
}

func (s *MultiStopRequest) Bind(r *http.Request) error {
	if len(s.Stops) == 0 {
		return errors.New("invalid request")
	}
	mode, err := parseMode(s.Mode)
	if err != nil {
		return err
	}
	s.travelMode = mode
	return nil
}

// RushHourRequest model info
//
//	@Description	request body untuk mengubah kondisi lalu lintas
type RushHourRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (s *RushHourRequest) Bind(r *http.Request) error {
	if s.Active == nil {
		return errors.New("invalid request")
	}
	return nil
}

type POIResponse struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"category"`
}

func NewPOIResponses(pois []datastructure.PointOfInterest) []POIResponse {
	resp := make([]POIResponse, len(pois))
	for i, p := range pois {
		resp[i] = POIResponse{Name: p.Name, Lat: p.Lat, Lon: p.Lon, Category: p.Category}
	}
	return resp
}

// ShortestPathResponse	model info
//
//	@Description	response body untuk satu rute
type ShortestPathResponse struct {
	Path             string                     `json:"path"`
	Nodes            []int64                    `json:"nodes"`
	Route            []datastructure.Coordinate `json:"route,omitempty"`
	Dist             float64                    `json:"distance"`
	GeodesicDist     float64                    `json:"geodesic_distance"`
	ETA              float64                    `json:"ETA"`
	Cost             float64                    `json:"cost"`
	AvgSpeed         float64                    `json:"average_speed_kmh"`
	Climb            float64                    `json:"climb"`
	Descent          float64                    `json:"descent"`
	FuelCost         float64                    `json:"fuel_cost,omitempty"`
	Calories         float64                    `json:"calories,omitempty"`
	Found            bool                       `json:"found"`
	Mode             string                     `json:"mode"`
	Alg              string                     `json:"algorithm"`
	NodesExplored    int                        `json:"nodes_explored"`
	HeapOperations   int                        `json:"heap_operations"`
	ComputationMilli float64                    `json:"computation_ms"`
	POIs             []POIResponse              `json:"pois_along_route"`
}

func NewShortestPathResponse(route service.Route) *ShortestPathResponse {
	return &ShortestPathResponse{
		Path:             route.Polyline,
		Nodes:            route.NodeIDs,
		Route:            route.Coordinates,
		Dist:             route.Trip.DistanceMeters,
		GeodesicDist:     route.Trip.GeodesicMeters,
		ETA:              route.ETAMinutes,
		Cost:             route.Cost,
		AvgSpeed:         route.AverageSpeedKmh(),
		Climb:            util.RoundFloat(route.Trip.ClimbMeters, 2),
		Descent:          util.RoundFloat(route.Trip.DescentMeters, 2),
		FuelCost:         route.Trip.FuelCost,
		Calories:         route.Trip.Calories,
		Found:            true,
		Mode:             string(route.Mode),
		Alg:              route.Search.Algorithm,
		NodesExplored:    route.Search.NodesExplored,
		HeapOperations:   route.Search.HeapOperations,
		ComputationMilli: util.RoundFloat(float64(route.Search.Duration)/float64(time.Millisecond), 3),
		POIs:             NewPOIResponses(route.POIs),
	}
}

// shortestPath
//
//	@Summary		shortest path query antara 2 tempat.
//	@Description	shortest path query antara 2 tempat pakai A* (waktu tempuh) atau BFS (jumlah ruas jalan paling sedikit).
//	@Tags			navigations
//	@Param			body	body	ShortestPathRequest	true	"request body query shortest path antara 2 tempat"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/navigations/shortest-path [post]
//	@Success		200	{object}	ShortestPathResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) shortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validate(w, r, *data) {
		return
	}

	algorithm := data.Algorithm
	if algorithm == "" {
		algorithm = routingalgorithm.AlgorithmAStar
	}
	src, dst := data.locations()
	route, err := h.svc.ShortestPath(r.Context(), src, dst, data.travelMode, algorithm)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.observeSearch("shortest_path", route.Search.Algorithm, string(route.Mode), route.Search.NodesExplored)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewShortestPathResponse(route))
}

// AlternativesResponse model info
//
//	@Description	response body untuk k alternative route
type AlternativesResponse struct {
	Routes []*ShortestPathResponse `json:"routes"`
}

// alternatives
//
//	@Summary		k alternative route antara 2 tempat.
//	@Description	rute pertama selalu rute tercepat, rute berikutnya menghindari jalan yang sudah dipakai.
//	@Tags			navigations
//	@Param			body	body	AlternativesRequest	true	"request body alternative routes"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/navigations/alternatives [post]
//	@Success		200	{object}	AlternativesResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) alternatives(w http.ResponseWriter, r *http.Request) {
	data := &AlternativesRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validate(w, r, *data) {
		return
	}

	k := data.K
	if k == 0 {
		k = h.defaultK
	}
	src, dst := data.locations()
	routes, err := h.svc.Alternatives(r.Context(), src, dst, data.travelMode, k)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	resp := &AlternativesResponse{Routes: make([]*ShortestPathResponse, len(routes))}
	for i, route := range routes {
		resp.Routes[i] = NewShortestPathResponse(route)
		h.promeMetrics.observeSearch("alternatives", route.Search.Algorithm, string(route.Mode), route.Search.NodesExplored)
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// MultiStopResponse model info
//
//	@Description	response body untuk rute multi stop
type MultiStopResponse struct {
	ShortestPathResponse
	Order        []int   `json:"order"`
	Stops        []Coord `json:"ordered_stops"`
	Permutations int     `json:"permutations"`
	AStarCalls   int     `json:"astar_calls"`
}

// multiStop
//
//	@Summary		rute dari start melewati semua stop.
//	@Description	keep_order=false mencari urutan kunjungan tercepat (exhaustive untuk stop sedikit, nearest neighbour untuk stop banyak).
//	@Tags			navigations
//	@Param			body	body	MultiStopRequest	true	"request body multi stop route"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/navigations/multi-stop [post]
//	@Success		200	{object}	MultiStopResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) multiStop(w http.ResponseWriter, r *http.Request) {
	data := &MultiStopRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validate(w, r, *data) {
		return
	}

	stops := make([]service.Location, len(data.Stops))
	for i, s := range data.Stops {
		stops[i] = s.location()
	}
	tour, err := h.svc.MultiStop(r.Context(), data.Start.location(), stops, data.travelMode, data.KeepOrder)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.observeSearch("multi_stop", tour.Search.Algorithm, string(tour.Mode), tour.Search.NodesExplored)

	ordered := make([]Coord, len(tour.Order))
	for i, idx := range tour.Order {
		ordered[i] = data.Stops[idx]
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &MultiStopResponse{
		ShortestPathResponse: *NewShortestPathResponse(tour.Route),
		Order:                tour.Order,
		Stops:                ordered,
		Permutations:         tour.Permutations,
		AStarCalls:           tour.AStarCalls,
	})
}

type NearbyPOIsResponse struct {
	POIs []POIResponse `json:"pois"`
}

// nearbyPOIs
//
//	@Summary		POI di sekitar sebuah titik.
//	@Description	tanpa radius_km pakai grid cell (0.005 derajat), dengan radius_km pakai index h3.
//	@Tags			pois
//	@Param			lat			query	number	true	"latitude"
//	@Param			lon			query	number	true	"longitude"
//	@Param			radius_km	query	number	false	"radius pencarian dalam km"
//	@Produce		application/json
//	@Router			/pois/nearby [get]
//	@Success		200	{object}	NearbyPOIsResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) nearbyPOIs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil || lat <= -90 || lat >= 90 || lon <= -180 || lon >= 180 {
		render.Render(w, r, ErrInvalidRequest(errors.New("lat and lon query parameters are required")))
		return
	}
	radius := 0.0
	if s := q.Get("radius_km"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			render.Render(w, r, ErrInvalidRequest(errors.New("radius_km must be a positive number")))
			return
		}
		radius = v
	}

	pois, err := h.svc.NearbyPOIs(r.Context(), lat, lon, radius)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &NearbyPOIsResponse{POIs: NewPOIResponses(pois)})
}

type RushHourResponse struct {
	Active bool `json:"active"`
}

// rushHour
//
//	@Summary		kondisi lalu lintas saat ini.
//	@Tags			traffic
//	@Produce		application/json
//	@Router			/traffic/rush-hour [get]
//	@Success		200	{object}	RushHourResponse
func (h *NavigationHandler) rushHour(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &RushHourResponse{Active: h.svc.RushHour(r.Context())})
}

// setRushHour
//
//	@Summary		nyalakan/matikan simulasi rush hour untuk rute mobil berikutnya.
//	@Tags			traffic
//	@Param			body	body	RushHourRequest	true	"request body rush hour"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/traffic/rush-hour [put]
//	@Success		200	{object}	RushHourResponse
//	@Failure		400	{object}	ErrResponse
func (h *NavigationHandler) setRushHour(w http.ResponseWriter, r *http.Request) {
	data := &RushHourRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	active := h.svc.SetRushHour(r.Context(), *data.Active)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &RushHourResponse{Active: active})
}

type TripResponse struct {
	Time    time.Time `json:"time"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Mode    string    `json:"mode"`
	Minutes float64   `json:"minutes"`
	Meters  float64   `json:"meters"`
}

type HistoryResponse struct {
	Trips []TripResponse `json:"trips"`
}

// history
//
//	@Summary		5 rute terakhir yang dihitung.
//	@Tags			history
//	@Produce		application/json
//	@Router			/history [get]
//	@Success		200	{object}	HistoryResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) history(w http.ResponseWriter, r *http.Request) {
	trips, err := h.svc.History(r.Context())
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	resp := &HistoryResponse{Trips: make([]TripResponse, len(trips))}
	for i, t := range trips {
		resp.Trips[i] = TripResponse{
			Time:    time.Unix(0, t.UnixNano).UTC(),
			From:    t.From,
			To:      t.To,
			Mode:    t.Mode,
			Minutes: t.Minutes,
			Meters:  t.Meters,
		}
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	switch getStatusCode(err) {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusConflict:
		statusText = "Resource conflict."
	case http.StatusBadRequest:
		statusText = "Bad request."
	default:
		statusText = "Error."
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(err),
		StatusText:     statusText,
		ErrorText:      err.Error(),
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	}
	switch ierr.Code() {
	case server.ErrInternalServerError:
		return http.StatusInternalServerError
	case server.ErrNotFound:
		return http.StatusNotFound
	case server.ErrConflict:
		return http.StatusConflict
	case server.ErrBadParamInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}
