// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/ec2schedgo/internal/meta"
)

const bashCompletionScript = `# bash completion for ec2sched
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_ec2sched()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "launch cycle status completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local aws="--region --profile --endpoint --max-attempts --env-file -e"
    local sched="--launch-at -L --terminate-at -T --countdown --poll --wait-timeout --dry-run -n --down-on-interrupt --yes -y"

    case "$cmd" in
        launch)
            local opts="$aws $sched --ami --instance-type --key-name --subnet --security-groups --name --no-persist"
            ;;
        cycle)
            local opts="$aws $sched"
            ;;
        status)
            local opts="$aws --managed -m --attrs -a --color -c --filter -f --local -l --output -o --sort -s --titles -t"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$aws"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml raw" -- "$cur") )
            return 0
            ;;
        --env-file|-e)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _ec2sched ec2sched
`

const zshCompletionScript = `#compdef ec2sched

_ec2sched() {
  local -a cmds
  cmds=(
    'launch:launch a new instance and terminate it later'
    'cycle:start an existing instance and stop it later'
    'status:show instance state'
    'completion:generate shell completion script'
  )

  local -a aws sched
  aws=(
    '--region[AWS region]:region'
    '--profile[shared config profile]:profile'
    '--endpoint[EC2 endpoint URL]:url'
    '--max-attempts[SDK retry attempts]:n'
    '(-e --env-file)'{-e,--env-file}'[env file]:file:_files'
  )
  sched=(
    '(-L --launch-at)'{-L,--launch-at}'[launch time]:time'
    '(-T --terminate-at)'{-T,--terminate-at}'[termination time]:time'
    '--countdown[live countdown]'
    '--poll[poll interval]:duration'
    '--wait-timeout[state waiter limit]:duration'
    '(-n --dry-run)'{-n,--dry-run}'[dry run]'
    '--down-on-interrupt[bring the instance down on interrupt]'
    '(-y --yes)'{-y,--yes}'[do not ask for confirmation]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'ec2sched commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    launch)
      _arguments -C \
        $aws $sched \
        '--ami[AMI ID]:ami' \
        '--instance-type[instance type]:type' \
        '--key-name[key pair]:key' \
        '--subnet[subnet ID]:subnet' \
        '--security-groups[security group IDs]:sg' \
        '--name[Name tag]:name' \
        '--no-persist[do not save EC2_INSTANCE_ID]'
      ;;
    cycle)
      _arguments -C \
        $aws $sched \
        '::instance-id'
      ;;
    status)
      _arguments -C \
        $aws \
        '(-m --managed)'{-m,--managed}'[every managed instance]' \
        '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs' \
        '(-c --color)'{-c,--color}'[enable colored text]' \
        '(-f --filter)'{-f,--filter}'[filters to apply]:filters' \
        '(-l --local)'{-l,--local}'[local timestamps]' \
        '(-o --output)'{-o,--output}'[output format]:format:(text json yaml raw)' \
        '(-s --sort)'{-s,--sort}'[sort attributes]:attrs' \
        '(-t --titles)'{-t,--titles}'[show titles]' \
        '*::instance-id'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _ec2sched ec2sched
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	shell := cmd.Args().First()
	if shell == "" {
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	switch shell {
	case "bash":
		fmt.Fprint(m.Stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(m.Stdout, zshCompletionScript)
	default:
		return fmt.Errorf("usage: ec2sched completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "ec2sched completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
