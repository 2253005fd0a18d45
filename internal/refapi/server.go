package refapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goCare/codec"
	"github.com/MrEthical07/goCare/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	minPasswordLength = 8
	maxUploadBytes    = 8 << 20
)

// Options configures a Server.
type Options struct {
	// Secret signs issued tokens. Required.
	Secret []byte
	// TokenTTL sets the exp claim. Zero issues tokens without expiry.
	TokenTTL time.Duration
	// Codec, when set, makes login and register answer with a sealed token and its IV.
	Codec *codec.Codec
	// Now overrides the clock used for iat and exp.
	Now func() time.Time
}

// Patient is the record served under /patients.
type Patient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
}

// Document describes an uploaded multipart file.
type Document struct {
	PatientID   string `json:"patientId"`
	Kind        string `json:"kind,omitempty"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type user struct {
	id       string
	name     string
	email    string
	role     string
	password string
}

// Server holds the backend state. It is safe for concurrent use.
type Server struct {
	opts Options

	mu       sync.Mutex
	users    map[string]user
	patients map[string]Patient
	nextID   int

	logins   atomic.Uint64
	requests atomic.Uint64
}

// New returns an empty Server.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts:     opts,
		users:    make(map[string]user),
		patients: make(map[string]Patient),
	}
}

// Handler returns the routed backend.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.Guard(middleware.HS256(s.opts.Secret)))
	protected.HandleFunc("/users/me", s.me).Methods(http.MethodGet)
	protected.HandleFunc("/patients", s.listPatients).Methods(http.MethodGet)
	protected.HandleFunc("/patients", s.createPatient).Methods(http.MethodPost)
	protected.HandleFunc("/patients/{id}", s.getPatient).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{id}", s.replacePatient).Methods(http.MethodPut)
	protected.HandleFunc("/patients/{id}", s.deletePatient).Methods(http.MethodDelete)
	protected.HandleFunc("/patients/{id}/documents", s.uploadDocument).Methods(http.MethodPost)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.requests.Add(1)
		r.ServeHTTP(w, req)
	})
}

// AddUser registers an account directly and returns its id.
func (s *Server) AddUser(name, email, password, role string) (string, error) {
	u, err := s.addUser(name, email, password, role)
	if err != nil {
		return "", err
	}
	return u.id, nil
}

// Issue signs a token for the given identity.
func (s *Server) Issue(id, name, email, role string) (string, error) {
	now := s.opts.Now()
	claims := jwt.MapClaims{
		"id":    id,
		"name":  name,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
	}
	if s.opts.TokenTTL > 0 {
		claims["exp"] = now.Add(s.opts.TokenTTL).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
}

// Logins returns the number of successful logins and registrations.
func (s *Server) Logins() uint64 {
	return s.logins.Load()
}

// Requests returns the number of requests served.
func (s *Server) Requests() uint64 {
	return s.requests.Load()
}

var errEmailTaken = errors.New("email already registered")

func (s *Server) addUser(name, email, password, role string) (user, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return user{}, err
	}
	if role == "" {
		role = "doctor"
	}

	key := strings.ToLower(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[key]; exists {
		return user{}, errEmailTaken
	}
	u := user{id: uuid.NewString(), name: name, email: email, role: role, password: hash}
	s.users[key] = u
	return u, nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request body"})
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	if match, err := verifyPassword(in.Password, u.password); err != nil || !match {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	s.writeToken(w, http.StatusOK, u)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request body"})
		return
	}

	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !strings.Contains(in.Email, "@") {
		problems = append(problems, "email must be valid")
	}
	if len(in.Password) < minPasswordLength {
		problems = append(problems, "password must be at least "+strconv.Itoa(minPasswordLength)+" characters")
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": problems})
		return
	}

	u, err := s.addUser(in.Name, in.Email, in.Password, in.Role)
	if errors.Is(err, errEmailTaken) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not create account"})
		return
	}

	s.writeToken(w, http.StatusCreated, u)
}

func (s *Server) writeToken(w http.ResponseWriter, status int, u user) {
	token, err := s.Issue(u.id, u.name, u.email, u.role)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not issue token"})
		return
	}

	body := map[string]string{"token": token}
	if s.opts.Codec != nil {
		sealed, iv, err := s.opts.Codec.Seal(codec.BearerToken(token))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not seal token"})
			return
		}
		body = map[string]string{"token": string(sealed), "iv": iv}
	}

	s.logins.Add(1)
	writeJSON(w, status, body)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, claims)
}

func (s *Server) listPatients(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPatient(w http.ResponseWriter, r *http.Request) {
	var p Patient
	if !decodePatient(w, r, &p) {
		return
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		p.CreatedBy, _ = claims["id"].(string)
	}

	s.mu.Lock()
	s.nextID++
	p.ID = "p-" + strconv.Itoa(s.nextID)
	s.patients[p.ID] = p
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

// decodePatient validates the body against the patient schema and writes the
// error response itself when it returns false.
func decodePatient(w http.ResponseWriter, r *http.Request, p *Patient) bool {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "could not read request body"})
		return false
	}
	problems, err := validatePatient(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request body"})
		return false
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": problems})
		return false
	}
	if err := json.Unmarshal(raw, p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request body"})
		return false
	}
	return true
}

func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.patients[mux.Vars(r)["id"]]
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) replacePatient(w http.ResponseWriter, r *http.Request) {
	var p Patient
	if !decodePatient(w, r, &p) {
		return
	}

	id := mux.Vars(r)["id"]
	s.mu.Lock()
	prev, ok := s.patients[id]
	if ok {
		p.ID = id
		p.CreatedBy = prev.CreatedBy
		s.patients[id] = p
	}
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.patients[id]
	delete(s.patients, id)
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.patients[id]
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "expected multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "file is required"})
		return
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "could not read file"})
		return
	}

	writeJSON(w, http.StatusCreated, Document{
		PatientID:   id,
		Kind:        r.FormValue("kind"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        size,
	})
}

// The backend answers 404 with a plain-text body.
func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, "patient not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
