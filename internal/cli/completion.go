// Package cli provides shell completion script generation for various shells.
package cli

import (
	"fmt"
	"io"
)

// GenerateCompletion generates a shell completion script for the specified shell.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish", "powershell").
//   - backends: List of available backend names.
//   - regions: List of named region identifiers.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, backends, regions []string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out, backends, regions)
	case "zsh":
		return generateZshCompletion(out, backends, regions)
	case "fish":
		return generateFishCompletion(out, backends, regions)
	case "powershell", "ps":
		return generatePowerShellCompletion(out, backends)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
}

// generateBashCompletion generates a Bash completion script.
func generateBashCompletion(out io.Writer, backends, regions []string) error {
	script := `# Bash completion script for mandelgrid
# Add this to your ~/.bashrc or ~/.bash_completion

_mandelgrid_completions() {
    local cur prev opts backends regions
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Main options
    opts="--help -h --version -V --min-re --max-re --min-im --max-im --region --resolution --budget --ceiling --escape-radius --escape-threshold --precision --workers --backend --worker-cmd --timeout --output -o --input --json --quiet -q --no-color --log-level --metrics-addr --server --port --render --scale --zoom --zoom-factor --top-percentile --analyze --convert --from --to --value --calibrate --calibration-profile --list-regions --worker --completion -v"

    # Available backends and named regions
    backends="%s"
    regions="%s"

    case "${prev}" in
        --backend)
            COMPREPLY=( $(compgen -W "${backends}" -- "${cur}") )
            return 0
            ;;
        --region)
            COMPREPLY=( $(compgen -W "${regions}" -- "${cur}") )
            return 0
            ;;
        --completion)
            COMPREPLY=( $(compgen -W "bash zsh fish powershell" -- "${cur}") )
            return 0
            ;;
        --output|-o|--input|--worker-cmd|--calibration-profile)
            # File/directory completion
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
        --port)
            COMPREPLY=( $(compgen -W "8080 3000 5000 9000" -- "${cur}") )
            return 0
            ;;
        --timeout)
            COMPREPLY=( $(compgen -W "1m 5m 10m 30m 1h" -- "${cur}") )
            return 0
            ;;
        --from|--to)
            COMPREPLY=( $(compgen -W "10 32" -- "${cur}") )
            return 0
            ;;
        --precision)
            COMPREPLY=( $(compgen -W "64 128 256 512 1024" -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _mandelgrid_completions mandelgrid
`
	_, err := fmt.Fprintf(out, script, joinWords(backends), joinWords(regions))
	return err
}

// generateZshCompletion generates a Zsh completion script.
func generateZshCompletion(out io.Writer, backends, regions []string) error {
	script := `#compdef mandelgrid

# Zsh completion script for mandelgrid
# Add this to your ~/.zshrc or place in $fpath

_mandelgrid() {
    local -a backends regions
    backends=(%s)
    regions=(%s)

    _arguments -s \
        '(-h --help)'{-h,--help}'[Show help message]' \
        '(-V --version)'{-V,--version}'[Show version information]' \
        '--min-re[Minimum real bound (numeral)]:numeral:' \
        '--max-re[Maximum real bound (numeral)]:numeral:' \
        '--min-im[Minimum imaginary bound (numeral)]:numeral:' \
        '--max-im[Maximum imaginary bound (numeral)]:numeral:' \
        '--region[Named region of interest]:region:($regions)' \
        '--resolution[Points along the real axis]:count:(50 100 200 500 1000)' \
        '--budget[Starting iteration budget]:count:(50 100 500 1000)' \
        '--ceiling[Iteration ceiling]:count:(100000 1000000 10000000)' \
        '--escape-radius[Escape radius (numeral)]:numeral:' \
        '--escape-threshold[Diminishing-returns stop fraction]:fraction:' \
        '--precision[Working precision in bits (0 = auto)]:bits:(0 64 128 256 512)' \
        '--workers[Worker count (0 = CPU count)]:count:' \
        '--backend[Evaluation backend]:backend:($backends)' \
        '--worker-cmd[Worker command for the process backend]:command:_files' \
        '--timeout[Maximum execution time]:duration:(1m 5m 10m 30m 1h)' \
        '(-o --output)'{-o,--output}'[Output CSV file]:file:_files' \
        '--input[Input CSV file]:file:_files' \
        '--json[Emit the run summary as JSON]' \
        '(-q --quiet)'{-q,--quiet}'[Minimal output]' \
        '-v[Verbose output]' \
        '--no-color[Disable colored output]' \
        '--log-level[Log level]:level:(debug info error)' \
        '--metrics-addr[Prometheus listen address]:address:' \
        '--server[Run as HTTP server]' \
        '--port[Server port]:port:(8080 3000 5000 9000)' \
        '--render[Render a stored grid to PNG]' \
        '--scale[Render scale factor]:factor:(1 2 4)' \
        '--zoom[Propose a zoom window from a stored grid]' \
        '--zoom-factor[Zoom magnification]:factor:(2 5 10 100)' \
        '--top-percentile[Interest score percentile]:fraction:' \
        '--analyze[Analyze a stored grid]' \
        '--convert[Convert a value between bases]' \
        '--from[Source base]:base:(10 32)' \
        '--to[Target base]:base:(10 32)' \
        '--value[Value to convert]:value:' \
        '--calibrate[Run worker-count calibration]' \
        '--calibration-profile[Calibration profile path]:file:_files' \
        '--list-regions[List named regions]' \
        '--worker[Run as a line-protocol worker]' \
        '--completion[Generate completion script]:shell:(bash zsh fish powershell)'
}

_mandelgrid "$@"
`
	_, err := fmt.Fprintf(out, script, joinWords(backends), joinWords(regions))
	return err
}

// generateFishCompletion generates a Fish completion script.
func generateFishCompletion(out io.Writer, backends, regions []string) error {
	script := `# Fish completion script for mandelgrid
# Place in ~/.config/fish/completions/mandelgrid.fish

complete -c mandelgrid -s h -l help -d 'Show help message'
complete -c mandelgrid -s V -l version -d 'Show version information'
complete -c mandelgrid -l min-re -d 'Minimum real bound (numeral)'
complete -c mandelgrid -l max-re -d 'Maximum real bound (numeral)'
complete -c mandelgrid -l min-im -d 'Minimum imaginary bound (numeral)'
complete -c mandelgrid -l max-im -d 'Maximum imaginary bound (numeral)'
complete -c mandelgrid -l region -d 'Named region of interest' -xa '%s'
complete -c mandelgrid -l resolution -d 'Points along the real axis'
complete -c mandelgrid -l budget -d 'Starting iteration budget'
complete -c mandelgrid -l ceiling -d 'Iteration ceiling'
complete -c mandelgrid -l escape-radius -d 'Escape radius (numeral)'
complete -c mandelgrid -l escape-threshold -d 'Diminishing-returns stop fraction'
complete -c mandelgrid -l precision -d 'Working precision in bits (0 = auto)' -xa '0 64 128 256 512'
complete -c mandelgrid -l workers -d 'Worker count (0 = CPU count)'
complete -c mandelgrid -l backend -d 'Evaluation backend' -xa '%s'
complete -c mandelgrid -l worker-cmd -d 'Worker command for the process backend' -r
complete -c mandelgrid -l timeout -d 'Maximum execution time' -xa '1m 5m 10m 30m 1h'
complete -c mandelgrid -s o -l output -d 'Output CSV file' -r
complete -c mandelgrid -l input -d 'Input CSV file' -r
complete -c mandelgrid -l json -d 'Emit the run summary as JSON'
complete -c mandelgrid -s q -l quiet -d 'Minimal output'
complete -c mandelgrid -s v -d 'Verbose output'
complete -c mandelgrid -l no-color -d 'Disable colored output'
complete -c mandelgrid -l log-level -d 'Log level' -xa 'debug info error'
complete -c mandelgrid -l metrics-addr -d 'Prometheus listen address'
complete -c mandelgrid -l server -d 'Run as HTTP server'
complete -c mandelgrid -l port -d 'Server port' -xa '8080 3000 5000 9000'
complete -c mandelgrid -l render -d 'Render a stored grid to PNG'
complete -c mandelgrid -l scale -d 'Render scale factor' -xa '1 2 4'
complete -c mandelgrid -l zoom -d 'Propose a zoom window from a stored grid'
complete -c mandelgrid -l zoom-factor -d 'Zoom magnification'
complete -c mandelgrid -l top-percentile -d 'Interest score percentile'
complete -c mandelgrid -l analyze -d 'Analyze a stored grid'
complete -c mandelgrid -l convert -d 'Convert a value between bases'
complete -c mandelgrid -l from -d 'Source base' -xa '10 32'
complete -c mandelgrid -l to -d 'Target base' -xa '10 32'
complete -c mandelgrid -l value -d 'Value to convert'
complete -c mandelgrid -l calibrate -d 'Run worker-count calibration'
complete -c mandelgrid -l calibration-profile -d 'Calibration profile path' -r
complete -c mandelgrid -l list-regions -d 'List named regions'
complete -c mandelgrid -l worker -d 'Run as a line-protocol worker'
complete -c mandelgrid -l completion -d 'Generate completion script' -xa 'bash zsh fish powershell'
`
	_, err := fmt.Fprintf(out, script, joinWords(regions), joinWords(backends))
	return err
}

// generatePowerShellCompletion generates a PowerShell completion script.
func generatePowerShellCompletion(out io.Writer, backends []string) error {
	script := `# PowerShell completion script for mandelgrid
# Add this to your PowerShell profile

Register-ArgumentCompleter -Native -CommandName mandelgrid -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $options = @(
        '--help', '--version',
        '--min-re', '--max-re', '--min-im', '--max-im', '--region',
        '--resolution', '--budget', '--ceiling',
        '--escape-radius', '--escape-threshold', '--precision',
        '--workers', '--backend', '--worker-cmd', '--timeout',
        '--output', '--input', '--json', '--quiet', '--no-color',
        '--log-level', '--metrics-addr',
        '--server', '--port', '--render', '--scale',
        '--zoom', '--zoom-factor', '--top-percentile',
        '--analyze', '--convert', '--from', '--to', '--value',
        '--calibrate', '--calibration-profile',
        '--list-regions', '--worker', '--completion'
    )

    $backends = @(%s)

    if ($commandAst.ToString() -match '--backend\s+\S*$') {
        $backends | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
    } else {
        $options | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)
        }
    }
}
`
	quoted := ""
	for i, b := range backends {
		if i > 0 {
			quoted += ", "
		}
		quoted += fmt.Sprintf("'%s'", b)
	}
	_, err := fmt.Fprintf(out, script, quoted)
	return err
}

// joinWords concatenates identifiers with single spaces.
func joinWords(words []string) string {
	joined := ""
	for i, w := range words {
		if i > 0 {
			joined += " "
		}
		joined += w
	}
	return joined
}
