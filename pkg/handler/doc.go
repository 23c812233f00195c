// Package handler turns typed request handlers into http.HandlerFunc values.
//
// A HandlerFunc receives a Context and a request struct filled by the
// configured binders, and returns a Response:
//
//	type loginRequest struct {
//		Username string `json:"username"`
//		Password string `json:"password"`
//	}
//
//	func (s *Server) login(ctx handler.Context, req loginRequest) handler.Response {
//		p, err := s.resolver.Authenticate(ctx, req.Username, req.Password)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(p)
//	}
//
// Errors are classified by Classify: HTTPError carries its own status,
// ValidationError becomes 422 and everything else is a 500. NewErrorHandler
// accepts ErrorMapper functions that translate domain errors first, and logs
// each failure with the request ID.
package handler
