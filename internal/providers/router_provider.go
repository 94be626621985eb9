package providers

import (
	"net/http"

	"habitd/internal/structures"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	Put(url string, handler http.Handler)
	Delete(url string, handler http.Handler)
	GetRoutes() []structures.Route
}

type RouterProvider struct {
	routes []structures.Route
	muxes  map[string]*methodMux
}

// add registers handler for one method on url. Repeated calls with the same
// url share one Route entry, so the server mux sees each pattern once.
func (rp *RouterProvider) add(method, url string, handler http.Handler) {
	mux, ok := rp.muxes[url]
	if !ok {
		mux = &methodMux{handlers: make(map[string]http.Handler)}
		rp.muxes[url] = mux
		rp.routes = append(rp.routes, structures.Route{
			Url:     url,
			Handler: mux,
		})
	}
	mux.handlers[method] = handler
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(http.MethodGet, url, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(http.MethodPost, url, handler)
}

func (rp *RouterProvider) Put(url string, handler http.Handler) {
	rp.add(http.MethodPut, url, handler)
}

func (rp *RouterProvider) Delete(url string, handler http.Handler) {
	rp.add(http.MethodDelete, url, handler)
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{muxes: make(map[string]*methodMux)}
}

type methodMux struct {
	handlers map[string]http.Handler
}

func (m *methodMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler, ok := m.handlers[r.Method]
	if !ok {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	handler.ServeHTTP(w, r)
}
