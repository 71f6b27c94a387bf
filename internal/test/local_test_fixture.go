package test

import (
	"os"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type ServiceWait struct {
	Service  string
	Port     int
	Strategy wait.Strategy
}

type LocalTestFixture struct {
	dockerComposePath string
	compose           testcontainers.DockerCompose
}

func NewLocalTestFixture(dockerComposePath string, waits ...ServiceWait) (LocalTestFixture, error) {
	compose := testcontainers.NewLocalDockerCompose(
		[]string{dockerComposePath},
		uuid.New().String(),
	)

	var c testcontainers.DockerCompose = compose.WithCommand([]string{"up", "--build", "-d"})
	for _, w := range waits {
		c = compose.WithExposedService(w.Service, w.Port, w.Strategy)
	}

	f := LocalTestFixture{
		dockerComposePath: dockerComposePath,
		compose:           c,
	}

	return f, nil
}

func (f *LocalTestFixture) Start() error {
	if skip := os.Getenv("SKIP_INFRASTRUCTURE"); skip == "true" {
		return nil
	}

	execErr := f.compose.Invoke()
	return execErr.Error
}

func (f *LocalTestFixture) Stop() error {
	if skip := os.Getenv("SKIP_INFRASTRUCTURE"); skip == "true" {
		return nil
	}

	execErr := f.compose.Down()
	return execErr.Error
}
