package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Environment variables passed to extensions, with the value of the global flags.
const (
	EnvConfigFile    = "AUT_CONFIG_FILE"
	EnvPortfolioFile = "AUT_PORTFOLIO_FILE"
	EnvCatalogFile   = "AUT_CATALOG_FILE"
	EnvVerbose       = "AUT_VERBOSE"
)

// RunExtension attempts to find and execute an external aut-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "aut-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		log.Debug().Err(err).Str("command", externalCmdName).Msg("extension not found in PATH")
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// Pass global flags as environment variables
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, EnvConfigFile+"="+*configFile)
	if *portfolioFile != "" {
		cmd.Env = append(cmd.Env, EnvPortfolioFile+"="+*portfolioFile)
	}
	if *catalogFile != "" {
		cmd.Env = append(cmd.Env, EnvCatalogFile+"="+*catalogFile)
	}
	cmd.Env = append(cmd.Env, EnvVerbose+"="+strconv.FormatBool(*verbose))

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
