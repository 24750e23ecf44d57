package spin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fermyon/spin-companion/pkg/process"
	"github.com/fermyon/spin-companion/pkg/util"
)

// DeployExistingFlag tells the tool to reuse a bindle that is already on the server
const DeployExistingFlag = "--deploy-existing-bindle"

// Locator finds (installing if needed) the tool binary
type Locator interface {
	EnsureInstalled(ctx context.Context) (string, error)
}

// DeviceCode is the tool's answer to login --get-device-code
type DeviceCode struct {
	UserCode        string `json:"userCode"`
	DeviceCode      string `json:"deviceCode"`
	VerificationURL string `json:"verificationUrl"`
}

// LoginStatus is the tool's answer to login --status
type LoginStatus struct {
	DashboardURL string `json:"url"`
}

// Client invokes the tool's subcommands
type Client struct {
	locator Locator
	runner  process.Runner
}

// NewClient creates a client that resolves the binary with locator and
// starts it with runner
func NewClient(locator Locator, runner process.Runner) *Client {
	return &Client{
		locator: locator,
		runner:  runner,
	}
}

// Run executes the tool with args and returns its stdout. Stderr lines are
// passed to onProgress, which may be nil.
func (c *Client) Run(ctx context.Context, args []string, env map[string]string, onProgress func(string)) (string, error) {
	log := util.GetLogger()

	bin, err := c.locator.EnsureInstalled(ctx)
	if err != nil {
		return "", err
	}

	log.Info("Executing spin", "binary", bin, "args", args)
	return process.Collect(ctx, c.runner.Run(ctx, bin, args, env), onProgress)
}

// DeployArgs builds the arguments of a deploy. Only a redeploy over an
// existing bindle passes DeployExistingFlag.
func DeployArgs(reactivate bool) []string {
	args := []string{"deploy"}
	if reactivate {
		args = append(args, DeployExistingFlag)
	}
	return args
}

// Deploy runs a deploy against params and returns the tool's stdout
func (c *Client) Deploy(ctx context.Context, params DeployParameters, reactivate bool, onProgress func(string)) (string, error) {
	return c.Run(ctx, DeployArgs(reactivate), params.EnvVars(), onProgress)
}

func loginArgs(url string, insecure bool, extra ...string) []string {
	args := append([]string{"login"}, extra...)
	if url != "" {
		args = append(args, "--url", url)
	}
	if insecure {
		args = append(args, "-k")
	}
	return args
}

// GetDeviceCode asks the tool to start a device-code login against url
func (c *Client) GetDeviceCode(ctx context.Context, url string, insecure bool) (*DeviceCode, error) {
	stdout, err := c.Run(ctx, loginArgs(url, insecure, "--get-device-code"), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get device code: %w", err)
	}
	return ParseDeviceCode(stdout)
}

// CheckDeviceCode polls the tool once. It reports true once the device code
// has been authorized. A failed check or unrecognised output means the
// authorization is still pending; only a failure to run the tool is an error.
func (c *Client) CheckDeviceCode(ctx context.Context, code *DeviceCode, url string, insecure bool) (bool, error) {
	stdout, err := c.Run(ctx, loginArgs(url, insecure, "--check-device-code", code.DeviceCode), nil, nil)
	if err != nil {
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			util.GetLogger().V(1).Info("Device code not yet authorized", "output", exitErr.Output())
			return false, nil
		}
		return false, err
	}
	return IsAuthorized(stdout), nil
}

// LoginStatus returns the tool's current login, or nil when not logged in
func (c *Client) LoginStatus(ctx context.Context) (*LoginStatus, error) {
	stdout, err := c.Run(ctx, []string{"login", "--status"}, nil, nil)
	if err != nil {
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, err
	}
	return ParseLoginStatus(stdout), nil
}

// ParseDeviceCode decodes the output of login --get-device-code
func ParseDeviceCode(text string) (*DeviceCode, error) {
	var code DeviceCode
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &code); err != nil {
		return nil, fmt.Errorf("failed to parse device code response: %w", err)
	}
	if code.UserCode == "" || code.DeviceCode == "" {
		return nil, fmt.Errorf("device code response is missing a code: %s", strings.TrimSpace(text))
	}
	return &code, nil
}

// IsAuthorized reports whether the output of login --check-device-code
// carries a token
func IsAuthorized(text string) bool {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return false
	}
	return payload.Token != ""
}

// ParseLoginStatus decodes the output of login --status. Anything that is not
// a status object means not logged in.
func ParseLoginStatus(text string) *LoginStatus {
	var status LoginStatus
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &status); err != nil {
		return nil
	}
	if status.DashboardURL == "" {
		return nil
	}
	return &status
}
