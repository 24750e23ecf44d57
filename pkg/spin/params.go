package spin

// Environment variables the tool reads its deployment target from
const (
	EnvBindleURL     = "BINDLE_URL"
	EnvHippoURL      = "HIPPO_URL"
	EnvHippoUsername = "HIPPO_USERNAME"
	EnvHippoPassword = "HIPPO_PASSWORD"
)

// DeployParameters identifies where and as whom a deploy runs
type DeployParameters struct {
	BindleURL     string
	HippoURL      string
	HippoUsername string
	HippoPassword string
}

// WithPassword returns a copy of p using password
func (p DeployParameters) WithPassword(password string) DeployParameters {
	p.HippoPassword = password
	return p
}

// EnvVars returns the environment overlay passed to the tool
func (p DeployParameters) EnvVars() map[string]string {
	return map[string]string{
		EnvBindleURL:     p.BindleURL,
		EnvHippoURL:      p.HippoURL,
		EnvHippoUsername: p.HippoUsername,
		EnvHippoPassword: p.HippoPassword,
	}
}
