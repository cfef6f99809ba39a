package podman

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rimaleon/podman-mcp/pkg/exec"
	"github.com/rimaleon/podman-mcp/pkg/logx"
)

// composeFileDir is the directory (under the deployer's working directory)
// that holds the temporary manifests written for each deploy.
const composeFileDir = "podman-compose-files"

// DeployRequest describes one compose stack deployment.
type DeployRequest struct {
	ComposeYAML string
	ProjectName string
	PullImages  bool
}

// DeployResult is the outcome of a successful deployment.
type DeployResult struct {
	Services string // `podman-compose ps` output, or a placeholder when ps failed
}

// Deployer turns compose YAML into a running stack. Each deployment writes
// the manifest to disk, tears down any previous stack for the project,
// brings the new one up, and removes the manifest again whatever happened.
type Deployer struct {
	workDir    string
	composeBin string
	executor   exec.Executor
	logger     *logx.Logger

	// Timeout bounds each compose invocation within the workflow; the
	// workflow as a whole has no separate ceiling. Defaults to
	// DefaultCommandTimeout.
	Timeout time.Duration

	mu       sync.Mutex
	projects map[string]*sync.Mutex
}

// NewDeployer locates podman-compose and builds a Deployer rooted at the
// current working directory.
func NewDeployer() (*Deployer, error) {
	bin, err := FindCompose()
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, &Error{Kind: KindEnvironment, Op: "deploy", Err: err, Message: fmt.Sprintf("cannot determine working directory: %v", err)}
	}
	return NewDeployerWith(wd, bin, exec.ForPlatform(runtime.GOOS)), nil
}

// NewDeployerWith builds a Deployer with explicit working directory,
// compose binary and executor.
func NewDeployerWith(workDir, composeBin string, executor exec.Executor) *Deployer {
	return &Deployer{
		workDir:    workDir,
		composeBin: composeBin,
		executor:   executor,
		logger:     logx.NewLogger("deployer"),
		Timeout:    DefaultCommandTimeout,
		projects:   make(map[string]*sync.Mutex),
	}
}

// projectLock returns the mutex serializing deployments of one project.
// Concurrent deploys of different projects proceed in parallel.
func (d *Deployer) projectLock(project string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.projects[project]
	if !ok {
		lock = &sync.Mutex{}
		d.projects[project] = lock
	}
	return lock
}

// Deploy validates and deploys one compose stack, appending diagnostics to
// trace as it goes. On success the returned result carries the service
// listing. The temporary manifest is removed before Deploy returns, on
// every path.
func (d *Deployer) Deploy(ctx context.Context, req DeployRequest, trace *Trace) (*DeployResult, error) {
	if req.ComposeYAML == "" || req.ProjectName == "" {
		return nil, validationError("missing required compose_yaml or project_name")
	}

	lock := d.projectLock(req.ProjectName)
	lock.Lock()
	defer lock.Unlock()

	normalized, err := d.processYAML(req.ComposeYAML, trace)
	if err != nil {
		return nil, err
	}

	manifestPath, err := d.writeManifest(normalized, req.ProjectName)
	if err != nil {
		return nil, err
	}
	defer d.cleanup(manifestPath, trace)

	return d.deployStack(ctx, manifestPath, req, trace)
}

// processYAML parses and re-serializes the caller's YAML. Parsing up front
// means a malformed manifest is rejected before anything touches disk.
// Decoding into a yaml.Node keeps the caller's key order; only comments and
// formatting are lost in the round trip.
func (d *Deployer) processYAML(composeYAML string, trace *Trace) ([]byte, error) {
	trace.AddSection("Original YAML")
	trace.Add("%s", composeYAML)

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(composeYAML), &doc); err != nil {
		return nil, validationError("Invalid YAML format: %v", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, validationError("Invalid YAML format: document is empty")
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, validationError("Invalid YAML format: top-level must be a mapping")
	}

	normalized, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, validationError("Invalid YAML format: %v", err)
	}

	trace.AddSection("Loaded YAML Structure")
	trace.Add("%s", string(normalized))
	return normalized, nil
}

// writeManifest persists the normalized manifest and syncs it so the
// compose child process sees complete contents.
func (d *Deployer) writeManifest(normalized []byte, project string) (string, error) {
	dir := filepath.Join(d.workDir, composeFileDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Kind: KindEnvironment, Op: "deploy", Err: err, Message: fmt.Sprintf("cannot create compose directory: %v", err)}
	}

	path := filepath.Join(dir, project+"-podman-compose.yml")
	f, err := os.Create(path)
	if err != nil {
		return "", &Error{Kind: KindEnvironment, Op: "deploy", Err: err, Message: fmt.Sprintf("cannot write compose file: %v", err)}
	}
	defer f.Close()

	if _, err := f.Write(normalized); err != nil {
		return "", &Error{Kind: KindEnvironment, Op: "deploy", Err: err, Message: fmt.Sprintf("cannot write compose file: %v", err)}
	}
	if err := f.Sync(); err != nil {
		d.logger.Warn("fsync of %s failed: %v", path, err)
	}
	return path, nil
}

func (d *Deployer) deployStack(ctx context.Context, manifestPath string, req DeployRequest, trace *Trace) (*DeployResult, error) {
	compose := NewComposeWith(manifestPath, req.ProjectName, d.composeBin, d.executor)
	compose.Timeout = d.Timeout

	// Teardown of a previous stack is best effort. The project may simply
	// not exist yet.
	if result, err := compose.Down(ctx); err != nil {
		trace.Add("Warning during down: %v", err)
	} else {
		trace.AddResult("Down Command", result)
	}

	if req.PullImages {
		result, err := compose.Pull(ctx)
		if err != nil {
			return nil, err
		}
		trace.AddResult("Pull Command", result)
		if result.ExitCode != 0 {
			return nil, processError("pull", result.ExitCode, result.Stderr)
		}
	}

	result, err := compose.Up(ctx)
	if err != nil {
		return nil, err
	}
	trace.AddResult("Up Command", result)
	if result.ExitCode != 0 {
		return nil, &Error{
			Kind:     KindProcess,
			Op:       "up",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Message:  fmt.Sprintf("Deploy failed with code %d: %s", result.ExitCode, result.Stderr),
		}
	}

	services := "Unable to list services"
	if psResult, err := compose.PS(ctx); err == nil && psResult.ExitCode == 0 {
		services = psResult.Stdout
	}
	return &DeployResult{Services: services}, nil
}

// cleanup removes the manifest and, when it became empty, the manifest
// directory. Failures never affect the deployment outcome.
func (d *Deployer) cleanup(manifestPath string, trace *Trace) {
	if err := os.Remove(manifestPath); err != nil && !os.IsNotExist(err) {
		cerr := &Error{Kind: KindCleanup, Op: "deploy", Err: err, Message: fmt.Sprintf("cannot remove compose file: %v", err)}
		d.logger.Warn("Warning during cleanup: %v", cerr)
		trace.Add("Warning during cleanup: %v", cerr)
		return
	}

	dir := filepath.Dir(manifestPath)
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		d.logger.Warn("Warning during cleanup: %v", err)
	}
}
