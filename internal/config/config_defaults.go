package config

var defaults Config

func init() {
	yaml := []byte(`version: v1

# Refuse to run when the installed blocky does not meet this constraint.
# requires: ">= 0.1"

# Grammar used when no --format flag is given. Either a built-in
# ("markdown", "trac") or one declared under "grammars".
format: markdown

# Guess the language of code blocks without one from a leading
# "<?php" or "#!" line.
sniffLanguage: false

# grammars:
#   - name: moinmoin
#     base: trac
#     italic: "''"
#     bold: "'''"

log:
  enabled: false
  verbose: false
  # path: "/tmp/blocky.log"

batch:
  # Number of files converted at once. 0 means one per CPU.
  concurrency: 0
  pattern: "**"
`)

	cfg, err := parse(&Config{}, unmarshalYAML, yaml)
	if err != nil {
		panic(err)
	}

	defaults = *cfg
}
