package authflow

import (
	"errors"

	"github.com/jmcadam/authflow/jwt"
	"github.com/jmcadam/authflow/password"
)

// Builder assembles a [Service]. A zero builder starts from [DefaultConfig];
// the store is the only mandatory collaborator.
type Builder struct {
	config   Config
	store    AccountStore
	notifier Notifier
	sink     AuditSink

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

func (b *Builder) WithStore(store AccountStore) *Builder {
	b.store = store
	return b
}

// WithNotifier sets the outbound mail collaborator. Leaving it unset disables
// delivery entirely; every flow still succeeds.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// Build validates the configuration, constructs the hasher and token issuer,
// and starts the audit dispatcher. A builder can be used once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("account store is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Params{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	issuer, err := jwt.NewIssuer(jwt.Config{
		TTL:           b.config.SessionToken.TTL,
		SigningMethod: jwt.SigningMethod(b.config.SessionToken.SigningMethod),
		PrivateKey:    b.config.SessionToken.PrivateKey,
		PublicKey:     b.config.SessionToken.PublicKey,
		Issuer:        b.config.SessionToken.Issuer,
	})
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Service{
		config:   b.config,
		store:    b.store,
		notifier: b.notifier,
		hasher:   hasher,
		issuer:   issuer,
		audit:    newAuditDispatcher(b.config.Audit, b.sink),
		metrics:  NewMetrics(b.config.Metrics),
	}, nil
}
