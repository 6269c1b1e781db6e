// compileinfoprint is imported by the survey commands for the side effect of
// printing the build that is about to process results to os.Stderr
package compileinfoprint

import "github.com/carbocation/pfsurvey/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
