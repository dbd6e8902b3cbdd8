package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
)

const (
	keyringTokenKey = "token"
	keyringUserKey  = "user"
)

// KeyringStore persists the session in the operating system keychain.
// All failures fail open: reads report absent, writes are best-effort.
type KeyringStore struct {
	service string
	logger  *common.Logger
}

// NewKeyringStore creates a keychain-backed store scoped to a service name
// (e.g. "rampart").
func NewKeyringStore(service string, logger *common.Logger) *KeyringStore {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &KeyringStore{service: service, logger: logger}
}

func (s *KeyringStore) Token() (string, bool) {
	token, err := keyring.Get(s.service, keyringTokenKey)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

func (s *KeyringStore) SetToken(token string) {
	if err := keyring.Set(s.service, keyringTokenKey, token); err != nil {
		s.logger.Debug().Err(err).Msg("keyring token write failed")
	}
}

func (s *KeyringStore) User() (*models.User, bool) {
	raw, err := keyring.Get(s.service, keyringUserKey)
	if err != nil || raw == "" {
		return nil, false
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Debug().Err(err).Msg("keyring user record corrupt")
		return nil, false
	}
	return &user, true
}

func (s *KeyringStore) SetUser(user *models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		s.logger.Debug().Err(err).Msg("user record marshal failed")
		return
	}
	if err := keyring.Set(s.service, keyringUserKey, string(raw)); err != nil {
		s.logger.Debug().Err(err).Msg("keyring user write failed")
	}
}

func (s *KeyringStore) Clear() {
	if err := keyring.Delete(s.service, keyringTokenKey); err != nil {
		s.logger.Debug().Err(err).Msg("keyring token delete failed")
	}
	if err := keyring.Delete(s.service, keyringUserKey); err != nil {
		s.logger.Debug().Err(err).Msg("keyring user delete failed")
	}
}

// FileStore persists the session as a JSON file. Used where no system
// keychain is available (headless hosts, tests). Writes are atomic via a
// temp file rename.
type FileStore struct {
	path   string
	logger *common.Logger
}

type fileSession struct {
	Token string       `json:"token,omitempty"`
	User  *models.User `json:"user,omitempty"`
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string, logger *common.Logger) *FileStore {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) load() *fileSession {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &fileSession{}
	}
	var sess fileSession
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Debug().Err(err).Str("path", s.path).Msg("session file corrupt")
		return &fileSession{}
	}
	return &sess
}

func (s *FileStore) save(sess *fileSession) {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		s.logger.Debug().Err(err).Msg("session marshal failed")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		s.logger.Debug().Err(err).Msg("session dir create failed")
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		s.logger.Debug().Err(err).Msg("session write failed")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Debug().Err(err).Msg("session rename failed")
	}
}

func (s *FileStore) Token() (string, bool) {
	sess := s.load()
	if sess.Token == "" {
		return "", false
	}
	return sess.Token, true
}

func (s *FileStore) SetToken(token string) {
	sess := s.load()
	sess.Token = token
	s.save(sess)
}

func (s *FileStore) User() (*models.User, bool) {
	sess := s.load()
	if sess.User == nil {
		return nil, false
	}
	return sess.User, true
}

func (s *FileStore) SetUser(user *models.User) {
	sess := s.load()
	sess.User = user
	s.save(sess)
}

func (s *FileStore) Clear() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Debug().Err(err).Str("path", s.path).Msg("session file remove failed")
	}
}
