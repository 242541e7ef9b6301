package registry

import (
	"fmt"
	"io"
)

// BashCompletion writes a bash completion script driven entirely by the
// registry's category/command table (registry.All). --help is rendered from
// the urfave/cli tables in cmd/aptool/commands, so a new command has to be
// added in both places.
func BashCompletion(w io.Writer) {
	fmt.Fprintln(w, "_aptool_complete() {")
	fmt.Fprintln(w, "  local cur prev categories")
	fmt.Fprintln(w, `  cur="${COMP_WORDS[COMP_CWORD]}"`)
	fmt.Fprintln(w, `  prev="${COMP_WORDS[COMP_CWORD-1]}"`)
	categories := All()
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	fmt.Fprintf(w, "  categories=\"%s\"\n", joinSpace(names))
	fmt.Fprintln(w, "  if [ \"$COMP_CWORD\" -eq 1 ]; then")
	fmt.Fprintln(w, `    COMPREPLY=( $(compgen -W "$categories" -- "$cur") )`)
	fmt.Fprintln(w, "    return")
	fmt.Fprintln(w, "  fi")
	fmt.Fprintln(w, "  case \"${COMP_WORDS[1]}\" in")
	for _, cat := range categories {
		cmdNames := make([]string, 0, len(cat.Commands))
		for _, cmd := range cat.Commands {
			cmdNames = append(cmdNames, cmd.Name)
		}
		fmt.Fprintf(w, "    %s) COMPREPLY=( $(compgen -W \"%s\" -- \"$cur\") ) ;;\n", cat.Name, joinSpace(cmdNames))
	}
	fmt.Fprintln(w, "  esac")
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w, "complete -F _aptool_complete aptool")
}

// ZshCompletion writes a zsh completion script in the same data-driven
// style, using zsh's compadd builtin.
func ZshCompletion(w io.Writer) {
	fmt.Fprintln(w, "#compdef aptool")
	fmt.Fprintln(w, "_aptool() {")
	fmt.Fprintln(w, "  local -a categories")
	categories := All()
	fmt.Fprintln(w, "  categories=(")
	for _, cat := range categories {
		fmt.Fprintf(w, "    '%s:%s'\n", cat.Name, cat.Usage)
	}
	fmt.Fprintln(w, "  )")
	fmt.Fprintln(w, "  if (( CURRENT == 2 )); then")
	fmt.Fprintln(w, "    _describe 'command' categories")
	fmt.Fprintln(w, "    return")
	fmt.Fprintln(w, "  fi")
	fmt.Fprintln(w, "  case ${words[2]} in")
	for _, cat := range categories {
		fmt.Fprintf(w, "    %s) compadd", cat.Name)
		for _, cmd := range cat.Commands {
			fmt.Fprintf(w, " %s", cmd.Name)
		}
		fmt.Fprintln(w, " ;;")
	}
	fmt.Fprintln(w, "  esac")
	fmt.Fprintln(w, "}")
}

func joinSpace(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}
