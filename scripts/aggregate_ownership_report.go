// Command aggregate_ownership_report scans internal/services and reports which
// service methods write through repositories directly and which go through
// the skill aggregate. With -strict it exits non-zero when a registry write
// bypasses the aggregate.
//
//	go run ./scripts/aggregate_ownership_report.go [-strict] [root]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type repoField struct {
	Name     string `json:"name"`
	RepoType string `json:"repo_type"`
	Domain   string `json:"domain"`
	Targeted bool   `json:"targeted"`
}

type methodStats struct {
	StructName                    string   `json:"struct_name"`
	Method                        string   `json:"method"`
	File                          string   `json:"file"`
	Line                          int      `json:"line"`
	TargetedRepoWriteCalls        int      `json:"targeted_repo_write_calls"`
	TargetedRepoWritesObserved    []string `json:"targeted_repo_writes_observed"`
	SanctionedRepoWriteCalls      int      `json:"sanctioned_repo_write_calls"`
	AggregateWriteCalls           int      `json:"aggregate_write_calls"`
	AggregateWriteMethodsObserved []string `json:"aggregate_write_methods_observed"`
}

type ownershipReport struct {
	ServiceLayerTargetedRepoWriteCallsites  int           `json:"service_layer_targeted_repo_write_callsites"`
	ServiceLayerSanctionedRepoWriteCallsite int           `json:"service_layer_sanctioned_repo_write_callsites"`
	AggregateOwnedWriteCallsites            int           `json:"aggregate_owned_write_callsites"`
	Methods                                 []methodStats `json:"methods"`
	ResidualMethods                         []methodStats `json:"residual_methods"`
	AggregateAdoptionMethods                []methodStats `json:"aggregate_adoption_methods"`
	RepoFieldInventory                      []repoField   `json:"repo_field_inventory"`
}

var repoWriteMethods = map[string]bool{
	"Create":                true,
	"UpdateFields":          true,
	"IncrementDownloads":    true,
	"Delete":                true,
	"DeleteBySkill":         true,
	"SetFlags":              true,
	"UpdateOwnerBySkill":    true,
	"UpdateProviderAccount": true,
	"LockByID":              true,
	"LockBySlug":            true,
}

// sanctionedRepoWrites are direct writes that hold no cross-row invariant.
var sanctionedRepoWrites = map[string]bool{
	"SkillRepo.IncrementDownloads":   true,
	"UserRepo.UpdateProviderAccount": true,
}

var aggregateWriteMethods = map[string]bool{
	"Publish":             true,
	"Retag":               true,
	"SetApprovalBadge":    true,
	"SetBatch":            true,
	"SetModerationStatus": true,
	"HardDelete":          true,
	"TransferOwner":       true,
	"MarkDuplicate":       true,
}

var repoPackages = map[string]bool{
	"skillrepo": true,
	"userrepo":  true,
	"auditrepo": true,
}

func main() {
	strict := flag.Bool("strict", false, "exit 1 when a registry write bypasses the aggregate")
	flag.Parse()
	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	servicesDir := filepath.Join(root, "internal", "services")
	fset := token.NewFileSet()

	pkgs, err := parser.ParseDir(fset, servicesDir, func(fi os.FileInfo) bool {
		name := fi.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}, 0)
	if err != nil {
		exitf("parse dir: %v", err)
	}
	pkg, ok := pkgs["services"]
	if !ok {
		exitf("services package not found in %s", servicesDir)
	}

	// Services keep collaborators either directly or in a *Deps struct, so
	// field types are resolved by name across the whole package.
	repoFields := map[string]repoField{}
	aggFields := map[string]string{}
	for _, f := range pkg.Files {
		collectFields(f, repoFields, aggFields)
	}

	var methods []methodStats
	for filePath, f := range pkg.Files {
		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			rel = filePath
		}
		collectMethodStats(fset, f, rel, repoFields, aggFields, &methods)
	}

	report := buildReport(repoFields, methods)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))

	if *strict && report.ServiceLayerTargetedRepoWriteCallsites > 0 {
		exitf("%d registry write(s) bypass the skill aggregate", report.ServiceLayerTargetedRepoWriteCallsites)
	}
}

func collectFields(file *ast.File, repos map[string]repoField, aggs map[string]string) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || st.Fields == nil {
				continue
			}
			for _, field := range st.Fields.List {
				sel, ok := field.Type.(*ast.SelectorExpr)
				if !ok {
					continue
				}
				pkgIdent, ok := sel.X.(*ast.Ident)
				if !ok {
					continue
				}
				typeName := sel.Sel.Name
				for _, name := range field.Names {
					switch {
					case repoPackages[pkgIdent.Name] && strings.HasSuffix(typeName, "Repo"):
						domain, targeted := domainForRepoType(typeName)
						repos[name.Name] = repoField{Name: name.Name, RepoType: typeName, Domain: domain, Targeted: targeted}
					case pkgIdent.Name == "domainagg" && strings.HasSuffix(typeName, "Aggregate"):
						aggs[name.Name] = typeName
					}
				}
			}
		}
	}
}

func collectMethodStats(
	fset *token.FileSet,
	file *ast.File,
	relFile string,
	repos map[string]repoField,
	aggs map[string]string,
	out *[]methodStats,
) {
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvName, recvType := recvInfo(fd.Recv.List[0])
		if recvType == "" || recvName == "" {
			continue
		}

		stats := methodStats{
			StructName: recvType,
			Method:     fd.Name.Name,
			File:       filepath.ToSlash(relFile),
			Line:       fset.Position(fd.Pos()).Line,
		}
		targeted := map[string]bool{}
		aggMethods := map[string]bool{}

		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fnSel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			rcvSel, ok := fnSel.X.(*ast.SelectorExpr)
			if !ok || rootIdent(rcvSel) != recvName {
				return true
			}
			field, method := rcvSel.Sel.Name, fnSel.Sel.Name

			if rf, ok := repos[field]; ok && repoWriteMethods[method] {
				key := rf.RepoType + "." + method
				switch {
				case sanctionedRepoWrites[key]:
					stats.SanctionedRepoWriteCalls++
				case rf.Targeted:
					stats.TargetedRepoWriteCalls++
					targeted[key] = true
				}
				return true
			}
			if _, ok := aggs[field]; ok && aggregateWriteMethods[method] {
				stats.AggregateWriteCalls++
				aggMethods[method] = true
			}
			return true
		})

		stats.TargetedRepoWritesObserved = sortedKeys(targeted)
		stats.AggregateWriteMethodsObserved = sortedKeys(aggMethods)
		*out = append(*out, stats)
	}
}

func buildReport(repos map[string]repoField, methods []methodStats) ownershipReport {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})

	var report ownershipReport
	for _, m := range methods {
		if m.TargetedRepoWriteCalls == 0 && m.SanctionedRepoWriteCalls == 0 && m.AggregateWriteCalls == 0 {
			continue
		}
		report.Methods = append(report.Methods, m)
		report.ServiceLayerSanctionedRepoWriteCallsite += m.SanctionedRepoWriteCalls
		if m.TargetedRepoWriteCalls > 0 {
			report.ServiceLayerTargetedRepoWriteCallsites += m.TargetedRepoWriteCalls
			report.ResidualMethods = append(report.ResidualMethods, m)
		}
		if m.AggregateWriteCalls > 0 {
			report.AggregateOwnedWriteCallsites += m.AggregateWriteCalls
			report.AggregateAdoptionMethods = append(report.AggregateAdoptionMethods, m)
		}
	}

	names := make([]string, 0, len(repos))
	for name := range repos {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		report.RepoFieldInventory = append(report.RepoFieldInventory, repos[name])
	}
	return report
}

// rootIdent returns the identifier at the base of a selector chain such as
// s.deps.Skills.
func rootIdent(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.SelectorExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	recvName := field.Names[0].Name
	switch t := field.Type.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return recvName, id.Name
		}
	case *ast.Ident:
		return recvName, t.Name
	}
	return "", ""
}

func domainForRepoType(repoType string) (string, bool) {
	switch {
	case strings.HasPrefix(repoType, "Skill"):
		return "Registry", true
	case strings.HasPrefix(repoType, "AuditLog"):
		return "Moderation", true
	case strings.HasPrefix(repoType, "User"):
		return "Identity", false
	default:
		return "Other", false
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
